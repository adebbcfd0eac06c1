package aqi

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/greenpaths/gp-routing/util"
)

//**********************************************************
// aqi update files
//**********************************************************

// Update files are produced externally once per hour; the filename
// encodes the UTC hour the data applies to and is the only versioning
// mechanism.
func ExpectedFilename(t time.Time) string {
	return "aqi_" + t.UTC().Format("2006-01-02T15") + ".csv"
}

type _AqiRow struct {
	EdgeID int32   `csv:"edge_id"`
	Aqi    float64 `csv:"aqi"`
}

func _ReadAqiFile(dir string, filename string) (Dict[int32, float64], error) {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	rows := NewDict[int32, float64](10000)
	for row := range ReadCSVFromFile[_AqiRow](path, ',') {
		rows.Set(row.EdgeID, row.Aqi)
	}
	if len(rows) == 0 {
		return nil, errors.New("no rows in aqi update file " + filename)
	}
	return rows, nil
}
