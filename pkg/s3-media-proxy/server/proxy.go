package server

import (
	"net/http"
	"strings"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/bucket"
	responsehandler "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/response-handler"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/token"
)

// Token verification result when access is granted.
const tokenVerificationValid = "valid"

func (svr *Server) proxy(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	// Get response handler
	resHan := responsehandler.GetResponseHandlerFromContext(ctx)
	// Get routing state
	st := svr.routes.get()

	// Resolve path
	match, err := st.table.Resolve(req.URL.Path)
	// Check error
	if err != nil {
		bucket.HandleError(ctx, resHan, err)

		return
	}

	target, _ := match.Rule.Data.(*endpointTarget)

	// Check method
	if !target.endpoint.AllowsMethod(req.Method) {
		rw.Header().Set("Allow", strings.Join(target.endpoint.Methods, ", "))
		bucket.HandleError(ctx, resHan, errors.WithStack(bucket.ErrMethodNotAllowed))

		return
	}

	// Check access token
	if target.endpoint.Protected {
		err = svr.verifyAccessToken(req, st)
		// Check error
		if err != nil {
			bucket.HandleError(ctx, resHan, err)

			return
		}
	}

	// Create bucket client
	brctx := bucket.NewClient(
		target.bucket,
		target.endpoint,
		match,
		req.URL.Path,
		svr.s3clientManager,
		svr.cacheSvc,
		svr.webhookManager,
	)

	switch req.Method {
	case http.MethodPut:
		brctx.Put(ctx, &bucket.PutInput{
			Body:          req.Body,
			Header:        req.Header,
			ContentLength: req.ContentLength,
		})
	case http.MethodDelete:
		brctx.Delete(ctx)
	default:
		brctx.Get(ctx, &bucket.GetInput{
			Header: req.Header,
			Method: req.Method,
		})
	}
}

func (svr *Server) verifyAccessToken(req *http.Request, st *routingState) error {
	// Protected endpoints are rejected when tokens aren't configured
	if st.tokenSvc == nil {
		svr.metricsCl.IncTokenVerifications(string(token.Missing))

		return errors.WithStack(&token.VerifyError{Reason: token.Missing})
	}

	// Query parameter wins over header
	tok := req.URL.Query().Get(st.tokensCfg.QueryParam)
	if tok == "" {
		tok = req.Header.Get(st.tokensCfg.Header)
	}

	// Check token is present
	if tok == "" {
		svr.metricsCl.IncTokenVerifications(string(token.Missing))

		return errors.WithStack(&token.VerifyError{Reason: token.Missing})
	}

	// Verify
	err := st.tokenSvc.Verify(tok, req.URL.Path, svr.routes.clock())
	// Check error
	if err != nil {
		svr.metricsCl.IncTokenVerifications(string(token.ReasonOf(err)))

		return err
	}

	svr.metricsCl.IncTokenVerifications(tokenVerificationValid)

	return nil
}
