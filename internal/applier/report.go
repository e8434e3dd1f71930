package applier

import (
	"time"

	"github.com/tidwall/sjson"
)

// Report summarizes a run: what was captured, what the operator was
// applied to, and how much of the selection could be restored. On an
// aborted run the report covers the work done before the failure.
type Report struct {
	RunID    string
	Kind     string
	Operator string
	Captured []int
	Applied  []int
	Restored int

	// TopologyChanged reports whether the run added or removed
	// elements, in which case the restored indices name whatever
	// elements hold those positions now.
	TopologyChanged bool

	Elapsed time.Duration
}

// JSON renders the report as a JSON object.
func (r *Report) JSON() (string, error) {
	out := "{}"
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.Set(out, path, value)
	}

	set("run_id", r.RunID)
	set("kind", r.Kind)
	set("operator", r.Operator)
	set("captured", r.Captured)
	set("applied", r.Applied)
	set("restored", r.Restored)
	set("topology_changed", r.TopologyChanged)
	set("elapsed_ms", r.Elapsed.Milliseconds())
	return out, err
}
