package compilator

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// shouldRun implements the five-condition should-run predicate for one
// compile task's rendered command.
func shouldRun(store FingerprintStore, outputPath string, renderedCommand []string, toolchainHash uint64) (bool, error) {
	record, ok, err := store.LoadCommand(outputPath)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil // 1: no prior row.
	}
	if record.ToolchainHash != toolchainHash {
		return true, nil // 2: toolchain hash changed.
	}
	if record.QuotedCommand != quoteCommand(renderedCommand) {
		return true, nil // 3: rendered command changed.
	}

	inputs, err := store.LoadInputs(outputPath)
	if err != nil {
		return false, err
	}
	for _, in := range inputs {
		info, statErr := os.Stat(in.Path)
		if statErr != nil {
			return true, nil // 4: input no longer exists.
		}
		if info.ModTime().After(in.PrevMtime) {
			return true, nil // 4: input mtime is newer.
		}
	}

	if _, statErr := os.Stat(outputPath); statErr != nil {
		return true, nil // 5: expected output is absent.
	}

	return false, nil
}

// quoteCommand renders a command vector into the single string stored
// alongside a fingerprint row, so a later run can detect a changed
// rendering by plain string comparison. No shell-quoting semantics are
// implied — this value is never executed, only compared.
func quoteCommand(command []string) string {
	quoted := make([]string, len(command))
	for i, arg := range command {
		quoted[i] = strconv.Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// inputRecordsFromDisk stamps the current mtime of each discovered
// input path, building the InputRecord set a successful task's
// transaction writes as the new should-run baseline.
func inputRecordsFromDisk(paths []string) []InputRecord {
	out := make([]InputRecord, 0, len(paths))
	for _, p := range paths {
		mtime := time.Time{}
		if info, err := os.Stat(p); err == nil {
			mtime = info.ModTime()
		}
		out = append(out, InputRecord{Path: p, PrevMtime: mtime})
	}
	return out
}
