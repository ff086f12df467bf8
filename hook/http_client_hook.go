package hook

import (
	"log"
	"net/http"
)

// SetHTTPClientResult is the return type SET_HTTP_CLIENT handlers produce —
// the discoverer in exchange/discovery.go swaps in whatever client comes
// back (an httptest-backed one in tests) in place of the SSRF-guarded
// default.
type SetHTTPClientResult struct {
	Err    error
	Client *http.Client
}

func (r *SetHTTPClientResult) Error() error {
	if r.Err != nil {
		log.Printf("⚠️ Error executing SetHTTPClientResult: %v", r.Err)
	}
	return r.Err
}

func (r *SetHTTPClientResult) GetResult() *http.Client {
	r.Error()
	return r.Client
}
