package templateutils

import (
	"bytes"
	"os"
	"text/template"

	"emperror.dev/errors"
	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/generalutils"
)

// LoadLocalFileContent reads a template file.
func LoadLocalFileContent(path string) (string, error) {
	by, err := os.ReadFile(path)
	// Check if error exists
	if err != nil {
		return "", errors.WithStack(err)
	}

	return string(by), nil
}

// LoadAllHelpersContent concatenates all helper files.
func LoadAllHelpersContent(pathList []string) (string, error) {
	tplContent := ""

	// Loop over local path
	for _, item := range pathList {
		tpl, err := LoadLocalFileContent(item)
		// Check error
		if err != nil {
			return "", err
		}
		// Concat
		tplContent = tplContent + "\n" + tpl
	}

	return tplContent, nil
}

// ExecuteTemplate parses and runs a template with sprig functions.
func ExecuteTemplate(tplString string, data interface{}) (*bytes.Buffer, error) {
	// Load template from string
	tmpl, err := template.
		New("template-string-loaded").
		Funcs(sprig.TxtFuncMap()).
		Funcs(proxyFuncMap()).
		Parse(tplString)
	// Check if error exists
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Generate template in buffer
	buf := &bytes.Buffer{}

	err = tmpl.Execute(buf, data)
	// Check if error exists
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return buf, nil
}

func proxyFuncMap() template.FuncMap {
	return template.FuncMap{
		"humanSize": func(size int64) string {
			return humanize.Bytes(uint64(size))
		},
		"requestURI":    generalutils.GetRequestURI,
		"requestScheme": generalutils.GetRequestScheme,
		"requestHost":   generalutils.GetRequestHost,
	}
}
