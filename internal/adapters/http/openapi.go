package httpadapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var contractYAML []byte

// apiContract routes requests against the embedded OpenAPI document. The
// document ships inside the binary, so failing to load it is a build defect,
// not a runtime condition.
var apiContract = mustLoadContract()

func mustLoadContract() routers.Router {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractYAML)
	if err != nil {
		panic(fmt.Sprintf("load openapi contract: %v", err))
	}
	if err := doc.Validate(context.Background()); err != nil {
		panic(fmt.Sprintf("validate openapi contract: %v", err))
	}
	contract, err := gorillamux.NewRouter(doc)
	if err != nil {
		panic(fmt.Sprintf("build contract router: %v", err))
	}
	return contract
}

// contractMiddleware rejects requests that do not match the API contract
// before any handler runs. Request bodies are excluded from validation:
// multipart uploads are streamed by the handlers, not buffered here.
func contractMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		route, pathParams, err := apiContract.FindRoute(r)
		if err != nil {
			switch {
			case errors.Is(err, routers.ErrPathNotFound):
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown route"})
			case errors.Is(err, routers.ErrMethodNotAllowed):
				writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			default:
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options:    &openapi3filter.Options{ExcludeRequestBody: true},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		next.ServeHTTP(w, r)
	})
}
