package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/chatlyze/internal/logging"
	"github.com/Zuo-Peng/chatlyze/internal/report"
)

type Stats struct {
	Saved    int
	Replaced int
	Pruned   int
	Errors   int
}

func (s Stats) String() string {
	return fmt.Sprintf("saved=%d replaced=%d pruned=%d errors=%d",
		s.Saved, s.Replaced, s.Pruned, s.Errors)
}

// Digest is the hex sha256 of an export's bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Record saves a report as a new run. A previous run of the same file with
// identical content is replaced so re-analysing an unchanged export does not
// grow history.
func Record(db *DB, path string, data []byte, r *report.Report, stats *Stats) (Run, error) {
	abs := path
	if p, err := filepath.Abs(path); err == nil {
		abs = p
	}
	digest := Digest(data)

	run := Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		FilePath:  abs,
		SHA256:    digest,
		Summary:   report.Summarize(r),
	}

	prev, err := db.FindByDigest(abs, digest)
	if err != nil {
		stats.Errors++
		return Run{}, fmt.Errorf("lookup %s: %w", abs, err)
	}
	if prev != nil {
		run.ID = prev.ID
	}
	if err := db.SaveRun(run); err != nil {
		stats.Errors++
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	if prev != nil {
		stats.Replaced++
	} else {
		stats.Saved++
	}
	logging.Debug().Str("run", run.ID).Str("file", abs).Bool("replaced", prev != nil).Msg("recorded run")
	return run, nil
}

// Prune deletes runs whose export file no longer exists.
func Prune(db *DB, stats *Stats) error {
	paths, err := db.RunPaths()
	if err != nil {
		return err
	}
	for id, path := range paths {
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if _, err := db.DeleteRun(id); err != nil {
			stats.Errors++
			return err
		}
		stats.Pruned++
	}
	return nil
}
