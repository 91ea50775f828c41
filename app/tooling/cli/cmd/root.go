// Package cmd contains the ledger client commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var url string

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Client for the prose ledger node",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getJSON performs a GET against the node and pretty prints the response.
func getJSON(path string) {
	resp, err := http.Get(url + path)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

// printResponse re-indents the node's JSON response for the terminal.
func printResponse(resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	if len(body) == 0 {
		fmt.Println("no results")
		return
	}

	var pretty json.RawMessage
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return
	}

	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return
	}

	fmt.Println(string(out))
}
