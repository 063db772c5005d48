package astrodyn

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ExportConfig configures the CSV export of a propagation.
type ExportConfig struct {
	Filename  string
	Timestamp bool // suffix the file name with the creation time
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return c.Filename == ""
}

// createStateCSVFile returns a file which requires a defer close statement!
func createStateCSVFile(conf ExportConfig, epoch time.Time, depVarLabels []string) *os.File {
	config := getConfig()
	var filename string
	if conf.Timestamp {
		t := time.Now()
		filename = fmt.Sprintf("%s/prop-%s-%d-%02d-%02dT%02d.%02d.%02d.csv", config.outputDir, conf.Filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("%s/prop-%s.csv", config.outputDir, conf.Filename)
	}
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	// Header
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Records are <jd> <t> <x> <y> <z> <vel x> <vel y> <vel z> per propagated body
#   Position in m, velocity in m/s, t in seconds past epoch
#   Epoch (UTC): %s
`, time.Now(), epoch.UTC()))
	f.WriteString("jd,t,x,y,z,vx,vy,vz")
	if len(depVarLabels) > 0 {
		f.WriteString("," + strings.Join(depVarLabels, ","))
	}
	f.WriteString("\n")
	return f
}

// StreamStates streams every sample received on the channel to a CSV file
// until the channel is closed. Run it in its own goroutine alongside the
// propagation.
func StreamStates(conf ExportConfig, epoch time.Time, depVarLabels []string, samples <-chan Sample) {
	if conf.IsUseless() {
		for range samples {
		}
		return
	}
	f := createStateCSVFile(conf, epoch, depVarLabels)
	defer f.Close()
	epochJD := julian.TimeToJD(epoch)
	for s := range samples {
		fields := make([]string, 0, 2+len(s.State)+len(s.DepVars))
		fields = append(fields, fmt.Sprintf("%.8f", epochJD+s.T/86400), fmt.Sprintf("%f", s.T))
		for _, v := range s.State {
			fields = append(fields, fmt.Sprintf("%.6f", v))
		}
		for _, v := range s.DepVars {
			fields = append(fields, fmt.Sprintf("%.10g", v))
		}
		f.WriteString(strings.Join(fields, ",") + "\n")
	}
}
