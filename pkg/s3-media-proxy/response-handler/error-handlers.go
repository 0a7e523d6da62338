package responsehandler

import (
	"net/http"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
)

// GeneralNotFoundError answers a not found error outside of a handler.
func GeneralNotFoundError(req *http.Request, res http.ResponseWriter, cfgManager config.Manager, err error) {
	NewHandler(req, res, cfgManager).NotFoundError(err)
}

// GeneralForbiddenError answers a forbidden error outside of a handler.
func GeneralForbiddenError(req *http.Request, res http.ResponseWriter, cfgManager config.Manager, err error) {
	NewHandler(req, res, cfgManager).ForbiddenError(err)
}

// GeneralInternalServerError answers an internal server error outside of a handler.
func GeneralInternalServerError(req *http.Request, res http.ResponseWriter, cfgManager config.Manager, err error) {
	NewHandler(req, res, cfgManager).InternalServerError(err)
}

func (h *handler) NotFoundError(err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.NotFoundError
	}

	h.handleGenericErrorTemplate(err, item, notFoundErrorTemplate, http.StatusNotFound)
}

func (h *handler) ForbiddenError(err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.ForbiddenError
	}

	h.handleGenericErrorTemplate(err, item, forbiddenErrorTemplate, http.StatusForbidden)
}

func (h *handler) BadRequestError(err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.BadRequestError
	}

	h.handleGenericErrorTemplate(err, item, badRequestErrorTemplate, http.StatusBadRequest)
}

func (h *handler) InternalServerError(err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.InternalServerError
	}

	h.handleGenericErrorTemplate(err, item, internalServerErrorTemplate, http.StatusInternalServerError)
}

func (h *handler) BadGatewayError(err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.BadGatewayError
	}

	h.handleGenericErrorTemplate(err, item, badGatewayErrorTemplate, http.StatusBadGateway)
}

func (h *handler) GatewayTimeoutError(err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.GatewayTimeoutError
	}

	h.handleGenericErrorTemplate(err, item, gatewayTimeoutErrorTemplate, http.StatusGatewayTimeout)
}

func (h *handler) StatusError(status int, err error) {
	tplCfg := h.getTemplateConfig()

	var item *config.TemplateConfigItem
	if tplCfg != nil {
		item = tplCfg.GenericError
	}

	h.handleGenericErrorTemplate(err, item, genericErrorTemplate, status)
}

func (h *handler) handleGenericErrorTemplate(
	err error,
	tplCfgItem *config.TemplateConfigItem,
	builtin string,
	statusCode int,
) {
	// Get logger from request
	logger := h.getLogger()

	// Log error
	if statusCode >= http.StatusInternalServerError {
		logger.Error(err)
	} else {
		logger.Debug(err)
	}

	// Load helpers
	helpersContent, err2 := loadHelpers(h.getTemplateConfig())
	// Check error
	if err2 != nil {
		h.fallbackInternalServerError(err2)

		return
	}

	// Load template
	tplContent, headersTpl, err2 := loadTemplate(tplCfgItem, builtin)
	// Check error
	if err2 != nil {
		h.fallbackInternalServerError(err2)

		return
	}

	// Create data
	data := &errorData{
		Request:    h.req,
		Path:       h.req.URL.Path,
		Error:      err,
		Status:     statusCode,
		StatusText: http.StatusText(statusCode),
	}

	// Execute template
	err2 = h.templateExecution(helpersContent, tplContent, headersTpl, data, statusCode)
	// Check error
	if err2 != nil {
		h.fallbackInternalServerError(err2)
	}
}

// fallbackInternalServerError answers without any template when templates are broken.
func (h *handler) fallbackInternalServerError(err error) {
	// Log error
	h.getLogger().Error(err)

	// Set the header
	h.res.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Set status code
	h.res.WriteHeader(http.StatusInternalServerError)

	// Check head mode
	if h.headAnswerMode {
		return
	}

	// Write static body
	_, _ = h.res.Write([]byte(`<!DOCTYPE html>
<html>
  <body>
    <h1>Internal Server Error</h1>
  </body>
</html>
`))
}

func (h *handler) getTemplateConfig() *config.TemplateConfig {
	// Check configuration manager
	if h.cfgManager == nil {
		return nil
	}

	cfg := h.cfgManager.GetConfig()
	// Check configuration
	if cfg == nil {
		return nil
	}

	return cfg.Templates
}
