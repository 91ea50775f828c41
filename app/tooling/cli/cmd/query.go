package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the node status",
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/node/status")
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the entries waiting to be sealed",
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/entry/pending")
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-validate the whole chain",
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/chain/verify")
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks [number]",
	Short: "List the sealed blocks, or one block by number",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			getJSON("/v1/blocks/list")
			return
		}
		getJSON("/v1/blocks/" + args[0])
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search sealed entries by content or intent",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/entry/search/" + args[0])
	},
}

var authorCmd = &cobra.Command{
	Use:   "author <author>",
	Short: "List sealed entries by author",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/entry/author/" + args[0])
	},
}

var lineageCmd = &cobra.Command{
	Use:   "lineage <block> <entry>",
	Short: "Walk the ancestors of an entry",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/lineage/" + refPath(args))
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree <block> <entry>",
	Short: "Walk the descendants of an entry",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		getJSON("/v1/tree/" + refPath(args))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, pendingCmd, verifyCmd, blocksCmd, searchCmd, authorCmd, lineageCmd, treeCmd)
}

// refPath validates and joins the block/entry arguments.
func refPath(args []string) string {
	if _, err := strconv.ParseUint(args[0], 10, 64); err != nil {
		log.Fatal("block must be a number")
	}
	if _, err := strconv.Atoi(args[1]); err != nil {
		log.Fatal("entry must be a number")
	}
	return fmt.Sprintf("%s/%s", args[0], args[1])
}
