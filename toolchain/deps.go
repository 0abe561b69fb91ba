package toolchain

import "strings"

// DependencyReport is the result of parsing a compiler-emitted
// dependency report: the input files the compiler actually consumed,
// plus whatever output should be retained alongside the command (the
// "cleaned output" for msvc-prefix, the raw captured output otherwise).
type DependencyReport struct {
	Target        string // gnu-makefile only: the rule's target, e.g. "foo.o"
	Inputs        []string
	CleanedOutput string
}

// ParseDependencyReport parses rawOutput (the compiler's captured
// stdout+stderr) per mode. For DepsNone, source is the only input; the
// gnu-makefile and msvc-prefix modes record exactly the paths the
// report lists and do not add source when the report omits it.
func ParseDependencyReport(mode DepsMode, source, rawOutput, msvcPrefix string) DependencyReport {
	switch mode {
	case DepsGNUMakefile:
		return parseGNUMakefile(source, rawOutput)
	case DepsMSVCPrefix:
		return parseMSVCPrefix(source, rawOutput, msvcPrefix)
	default:
		return DependencyReport{Inputs: []string{source}, CleanedOutput: rawOutput}
	}
}

// parseGNUMakefile parses a `target: prereq1 prereq2 \` continued
// block. A malformed block (no ':' found) is logged by the caller; the
// input set is left empty but the task is still recorded, per spec.
func parseGNUMakefile(source, raw string) DependencyReport {
	joined := joinContinuedLines(raw)

	colon := strings.IndexByte(joined, ':')
	if colon < 0 {
		return DependencyReport{CleanedOutput: raw}
	}

	target := strings.TrimSpace(joined[:colon])
	fields := strings.Fields(joined[colon+1:])
	if len(fields) == 0 {
		return DependencyReport{CleanedOutput: raw}
	}
	return DependencyReport{Target: target, Inputs: fields, CleanedOutput: raw}
}

// joinContinuedLines joins "... \\\n..." line-continuation pairs in a
// Makefile-style dependency block into single logical lines.
func joinContinuedLines(s string) string {
	var b strings.Builder
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasSuffix(trimmed, "\\") {
			b.WriteString(strings.TrimSuffix(trimmed, "\\"))
			b.WriteByte(' ')
			continue
		}
		b.WriteString(trimmed)
		if i != len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// parseMSVCPrefix scans raw line by line; lines beginning (after
// leading whitespace) with prefix contribute their trailing path as an
// input, and all other lines accumulate into the cleaned output saved
// alongside the command.
func parseMSVCPrefix(source, raw, prefix string) DependencyReport {
	var inputs []string
	var cleaned []string

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if prefix != "" && strings.HasPrefix(trimmed, prefix) {
			path := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
			if path != "" {
				inputs = append(inputs, path)
			}
			continue
		}
		cleaned = append(cleaned, line)
	}

	return DependencyReport{
		Inputs:        inputs,
		CleanedOutput: strings.Join(cleaned, "\n"),
	}
}
