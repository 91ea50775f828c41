package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	content           string
	author            string
	intent            string
	metadata          string
	parents           []string
	derivativeType    string
	disableValidation bool
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new entry to the ledger",
	Run:   submitRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&content, "content", "c", "", "Natural language content of the entry.")
	submitCmd.Flags().StringVarP(&author, "author", "a", "", "Author identifier.")
	submitCmd.Flags().StringVarP(&intent, "intent", "i", "", "Declared intent of the entry.")
	submitCmd.Flags().StringVarP(&metadata, "metadata", "m", "", "Metadata as a JSON object.")
	submitCmd.Flags().StringSliceVarP(&parents, "parent", "r", nil, "Parent reference as block/entry. Repeatable.")
	submitCmd.Flags().StringVarP(&derivativeType, "derivative", "d", "", "Derivative type: counter_offer | acceptance | rejection | amendment.")
	submitCmd.Flags().BoolVar(&disableValidation, "no-validate", false, "Skip the semantic review.")
	submitCmd.MarkFlagRequired("content")
	submitCmd.MarkFlagRequired("author")
}

func submitRun(cmd *cobra.Command, args []string) {
	req := struct {
		Content           string         `json:"content"`
		Author            string         `json:"author"`
		Intent            string         `json:"intent,omitempty"`
		Metadata          map[string]any `json:"metadata,omitempty"`
		ParentRefs        []parentRef    `json:"parent_references,omitempty"`
		DerivativeType    string         `json:"derivative_type,omitempty"`
		DisableValidation bool           `json:"disable_validation,omitempty"`
	}{
		Content:           content,
		Author:            author,
		Intent:            intent,
		DerivativeType:    derivativeType,
		DisableValidation: disableValidation,
	}

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &req.Metadata); err != nil {
			log.Fatal("metadata must be a JSON object: ", err)
		}
	}

	for _, p := range parents {
		ref, err := toParentRef(p)
		if err != nil {
			log.Fatal(err)
		}
		req.ParentRefs = append(req.ParentRefs, ref)
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(url+"/v1/entry/submit", "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

type parentRef struct {
	Block uint64 `json:"block"`
	Entry int    `json:"entry"`
}

// toParentRef parses a block/entry pair like "3/0".
func toParentRef(s string) (parentRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return parentRef{}, fmt.Errorf("parent reference %q is not in block/entry form", s)
	}

	block, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return parentRef{}, fmt.Errorf("parent reference %q has an invalid block number", s)
	}

	entry, err := strconv.Atoi(parts[1])
	if err != nil {
		return parentRef{}, fmt.Errorf("parent reference %q has an invalid entry index", s)
	}

	return parentRef{Block: block, Entry: entry}, nil
}
