package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var keyPath string

// keygenCmd represents the keygen command
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a private key for a node identity",
	Run:   keygenRun,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keyPath, "out", "o", "zledger/node.ecdsa", "Path to write the private key.")
}

func keygenRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	if err := crypto.SaveECDSA(keyPath, privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Println("wrote", keyPath)
	fmt.Println("node id:", crypto.PubkeyToAddress(privateKey.PublicKey).String())
}
