package export

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/SebastianScherer88/graphit/pkg/errors"
)

// RunDirLayout is the time format of run directory names.
const RunDirLayout = "2006-01-02 15-04-05"

// RunDir creates <base>/<start time> and returns its path. A run starting
// within the same second as an earlier one gets a numeric suffix.
func RunDir(base string, start time.Time) (string, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileAccess, err, "create output directory %s", base)
	}
	name := start.Format(RunDirLayout)
	dir := filepath.Join(base, name)
	for i := 1; ; i++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileAccess, err, "create run directory %s", dir)
		}
		dir = filepath.Join(base, name+" ("+strconv.Itoa(i)+")")
	}
}
