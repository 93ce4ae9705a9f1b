package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/amm-validator/internal/codec"
)

// readArg returns the argument itself, or stdin when it is "-".
func readArg(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	return io.ReadAll(cmd.InOrStdin())
}

// readHex reads hex from a file. Files that are not hex are taken as raw CBOR.
func readHex(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(strings.TrimSpace(string(b)), "0x")
	if raw, err := hex.DecodeString(text); err == nil {
		return raw, nil
	}
	return b, nil
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex|->",
		Short: "Decode a CBOR action into its JSON envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readArg(cmd, args[0])
			if err != nil {
				return err
			}
			raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(in)), "0x"))
			if err != nil {
				return fmt.Errorf("decode hex: %w", err)
			}
			a, err := codec.Decode(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", codec.KindOf(err), err)
			}
			js, err := codec.MarshalAction(a)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(js))
			return err
		},
	}
}

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <json|->",
		Short: "Encode a JSON action envelope as CBOR hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readArg(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := codec.UnmarshalAction(in)
			if err != nil {
				return err
			}
			raw, err := codec.Encode(a)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
			return err
		},
	}
}
