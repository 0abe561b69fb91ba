package compilator

import "time"

// commit writes a successful task's fingerprint row and input set in
// one transaction: replace the commands row, delete then re-insert all
// inputs rows.
func commit(store FingerprintStore, outputPath string, command []string, output string, toolchainHash uint64, elapsed time.Duration, inputPaths []string) error {
	txn, err := store.BeginTransaction()
	if err != nil {
		return err
	}

	cmd := CommandRecord{
		QuotedCommand: quoteCommand(command),
		Output:        output,
		ToolchainHash: toolchainHash,
		DurationMS:    elapsed.Milliseconds(),
	}

	if err := txn.Save(outputPath, cmd, inputRecordsFromDisk(inputPaths)); err != nil {
		_ = txn.Rollback()
		return err
	}

	return txn.Commit()
}
