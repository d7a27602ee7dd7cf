package httpapi

import (
	"net/http"
	"strconv"
)

func boolParam(req *http.Request, name string) bool {
	v, err := strconv.ParseBool(req.URL.Query().Get(name))
	return err == nil && v
}
