// compileinfoprint is imported for the side effect of printing the compileinfo
// banner to os.Stderr when a tool starts.
package compileinfoprint

import "github.com/carbocation/eegmisc/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
