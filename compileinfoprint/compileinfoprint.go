// compileinfoprint is imported by the varmatrix commands for the side effect
// of printing their build banner to os.Stderr.
package compileinfoprint

import "github.com/carbocation/varmatrix/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
