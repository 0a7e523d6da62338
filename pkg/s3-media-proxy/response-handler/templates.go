package responsehandler

import (
	"embed"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/templateutils"
)

const (
	helpersTemplate             = "templates/_helpers.tpl"
	notFoundErrorTemplate       = "templates/not-found-error.tpl"
	forbiddenErrorTemplate      = "templates/forbidden-error.tpl"
	badRequestErrorTemplate     = "templates/bad-request-error.tpl"
	internalServerErrorTemplate = "templates/internal-server-error.tpl"
	badGatewayErrorTemplate     = "templates/bad-gateway-error.tpl"
	gatewayTimeoutErrorTemplate = "templates/gateway-timeout-error.tpl"
	genericErrorTemplate        = "templates/generic-error.tpl"
)

//go:embed templates/*.tpl
var builtinTemplates embed.FS

func loadBuiltinTemplate(name string) (string, error) {
	by, err := builtinTemplates.ReadFile(name)
	// Check error
	if err != nil {
		return "", errors.WithStack(err)
	}

	return string(by), nil
}

// loadHelpers returns built-in helpers followed by configured ones.
func loadHelpers(tplCfg *config.TemplateConfig) (string, error) {
	content, err := loadBuiltinTemplate(helpersTemplate)
	// Check error
	if err != nil {
		return "", err
	}

	// Check if helpers are configured
	if tplCfg == nil || len(tplCfg.Helpers) == 0 {
		return content, nil
	}

	custom, err := templateutils.LoadAllHelpersContent(tplCfg.Helpers)
	// Check error
	if err != nil {
		return "", err
	}

	return content + "\n" + custom, nil
}

// loadTemplate returns the template content and header templates for an item.
// A missing item or path selects the built-in template.
func loadTemplate(item *config.TemplateConfigItem, builtin string) (string, map[string]string, error) {
	headers := config.DefaultTemplateHeaders
	// Check headers override
	if item != nil && item.Headers != nil {
		headers = item.Headers
	}

	// Check path override
	if item != nil && item.Path != "" {
		content, err := templateutils.LoadLocalFileContent(item.Path)

		return content, headers, err
	}

	content, err := loadBuiltinTemplate(builtin)

	return content, headers, err
}
