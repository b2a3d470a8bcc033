package commands

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/ledger"
)

// VerifyCmd verifies an exported receipt chain
var VerifyCmd = &cobra.Command{
	Use:   "verify [entries file]",
	Short: "Verify an exported receipt chain",
	Long: `Re-derive every chain hash in an exported receipt chain and report the
first entry that fails, if any.

The input is the JSON array of entries served by the cnv://ledger/recent
resource (or any full export starting at entry 0). Pass - to read stdin.

Examples:
  cnv verify receipts.json
  cat receipts.json | cnv verify -`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := readEntries(args[0])
	if err != nil {
		return err
	}

	var entries []ledger.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "failed to decode entries")
	}
	if len(entries) == 0 {
		pterm.Warning.Println("chain is empty, nothing to verify")
		return nil
	}

	if index, ok := ledger.VerifyEntries(entries); !ok {
		pterm.Error.Printf("chain invalid at entry %d: hash does not re-derive from its receipt and predecessor\n", index)
		return errors.Newf("chain verification failed at entry %d", index)
	}

	pterm.Success.Printf("chain valid: %d entries, head %s\n",
		len(entries), entries[len(entries)-1].ChainHash.Hex())
	return nil
}

func readEntries(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}
