package ops_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/evan-idocoding/livetune/ops"
	"github.com/evan-idocoding/livetune/rt/tuning"
)

func ExampleHealthzHandler() {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ops.HealthzHandler().ServeHTTP(rr, req)

	fmt.Print(rr.Body.String())

	// Output:
	// ok
}

func ExampleTuningSnapshotHandler() {
	reg := tuning.New()
	tuning.NewInt32(reg, "int", "name20", 20, tuning.WithMin[int32](0), tuning.WithMax[int32](20)).Register()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ops.TuningSnapshotHandler(reg).ServeHTTP(rr, req)

	fmt.Print(rr.Body.String())

	// Output:
	// tuning	int/name20	kind	Int32
	// tuning	int/name20	current	20
	// tuning	int/name20	default	20
	// tuning	int/name20	min	0
	// tuning	int/name20	max	20
}

func ExampleTuningSetHandler() {
	reg := tuning.New()
	tuning.NewBool(reg, "bool", "name3", false).Register()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/?category=bool&name=name3&value=on", nil)
	ops.TuningSetHandler(reg).ServeHTTP(rr, req)

	fmt.Print(rr.Body.String())

	// Output:
	// tuning	bool/name3	old.kind	Boolean
	// tuning	bool/name3	old.current	false
	// tuning	bool/name3	old.default	false
	// tuning	bool/name3	new.kind	Boolean
	// tuning	bool/name3	new.current	true
	// tuning	bool/name3	new.default	false
}
