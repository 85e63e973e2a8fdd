package cache

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
)

// hashLen is the number of hex characters of the blake3 digest kept in keys
const hashLen = 16

// Key builds the entry name for a query: {sub}-{since}-{until}.json, or
// {sub}-{hash}-{since}-{until}.json when the query carries a file list or
// extra parameters. Unbounded ends are written as "all". Files are sorted
// and de-duplicated before hashing, so their order never matters.
func Key(subcommand string, since, until *int64, files []string, extra ...string) string {
	sinceLabel, untilLabel := bound(since), bound(until)
	if len(files) == 0 && len(extra) == 0 {
		return subcommand + "-" + sinceLabel + "-" + untilLabel + ".json"
	}
	return subcommand + "-" + digest(files, extra) + "-" + sinceLabel + "-" + untilLabel + ".json"
}

func bound(ts *int64) string {
	if ts == nil {
		return "all"
	}
	return strconv.FormatInt(*ts, 10)
}

func digest(files, extra []string) string {
	unique := make(map[string]struct{}, len(files))
	sorted := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := unique[f]; ok {
			continue
		}
		unique[f] = struct{}{}
		sorted = append(sorted, f)
	}
	sort.Strings(sorted)

	h := blake3.New(32, nil)
	for _, f := range sorted {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	if len(extra) > 0 {
		h.Write([]byte{1})
		h.Write([]byte(strings.Join(extra, "\x00")))
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLen]
}
