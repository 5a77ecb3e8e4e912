package payload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"mirror/webuntis/internal/fetch"
)

const dumpSuffix = "_api.json"

var unsafeTitle = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Dumper writes payloads as pretty JSON files and keeps only the newest
// Retention of them.
type Dumper struct {
	Dir       string
	Retention int
	All       bool

	logger fetch.Logger
	now    func() time.Time
}

func NewDumper(dir string, retention int, all bool, logger fetch.Logger) *Dumper {
	return &Dumper{Dir: dir, Retention: retention, All: all, logger: logger, now: time.Now}
}

// Write stores p and prunes old dumps. Failures are logged, never returned.
func (d *Dumper) Write(p Payload) string {
	return fetch.TryOrDefault(d.logger, "debug dump title="+p.Title, "", func() (string, error) {
		path, err := d.write(p)
		if err != nil {
			return "", err
		}
		if err := d.prune(); err != nil {
			return path, fmt.Errorf("prune: %w", err)
		}
		return path, nil
	})
}

func (d *Dumper) write(p Payload) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	title := unsafeTitle.ReplaceAllString(strings.TrimSpace(p.Title), "_")
	if title == "" {
		title = "student"
	}
	name := fmt.Sprintf("%d_%s%s", d.now().UnixMilli(), title, dumpSuffix)
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Dumper) prune() error {
	if d.Retention <= 0 {
		return nil
	}
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return err
	}
	type dump struct {
		name  string
		stamp int64
	}
	var dumps []dump
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dumpSuffix) {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		stamp, err := strconv.ParseInt(prefix, 10, 64)
		if err != nil {
			continue
		}
		dumps = append(dumps, dump{name: e.Name(), stamp: stamp})
	}
	if len(dumps) <= d.Retention {
		return nil
	}
	sort.Slice(dumps, func(i, j int) bool {
		if dumps[i].stamp != dumps[j].stamp {
			return dumps[i].stamp > dumps[j].stamp
		}
		return dumps[i].name > dumps[j].name
	})
	for _, old := range dumps[d.Retention:] {
		if err := os.Remove(filepath.Join(d.Dir, old.name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
