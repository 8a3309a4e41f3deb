package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haukened/focusgate/internal/gate/domain"
)

// FilePusher applies rules to an in-memory Ruleset and additionally exports
// the snapshot as JSON for the host platform to enforce. The export is
// written to a temp file and renamed into place so readers never observe a
// partial rule set.
type FilePusher struct {
	*Ruleset
	path string
}

// exportDoc is the on-disk shape of the exported rule set.
type exportDoc struct {
	Rules []domain.CompiledRule `json:"rules"`
}

// NewFilePusher returns a FilePusher exporting to path.
func NewFilePusher(path string) *FilePusher {
	return &FilePusher{Ruleset: NewRuleset(), path: path}
}

// ReplaceRules swaps the in-memory snapshot and rewrites the export file.
// An export failure is returned so the compiler retries rather than
// silently reporting success.
func (p *FilePusher) ReplaceRules(removeIDs []int, add []domain.CompiledRule) error {
	if err := p.Ruleset.ReplaceRules(removeIDs, add); err != nil {
		return err
	}
	return p.export()
}

func (p *FilePusher) export() error {
	doc := exportDoc{Rules: p.Rules()}
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rule export: %w", err)
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		return fmt.Errorf("failed to create rule export temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write rule export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close rule export: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish rule export: %w", err)
	}
	return nil
}
