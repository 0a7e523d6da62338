package responsehandler

import (
	"emperror.dev/errors"
	utils "github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/generalutils"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/templateutils"
)

func (h *handler) templateExecution(
	helpersContent, tplContent string,
	headersTpl map[string]string,
	data interface{},
	status int,
) error {
	// Manage headers
	headers, err := h.manageHeaders(helpersContent, headersTpl, data)
	// Check error
	if err != nil {
		return err
	}

	// Execute main template
	bodyBuf, err := templateutils.ExecuteTemplate(helpersContent+"\n"+tplContent, data)
	// Check error
	if err != nil {
		return err
	}

	// Loop over headers
	for k, v := range headers {
		// Set header
		h.res.Header().Set(k, v)
	}

	// Error pages must not be cached by clients
	h.res.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	// Set status code
	h.res.WriteHeader(status)

	// Check if we aren't in head answer
	if !h.headAnswerMode {
		// Write to response
		_, err = bodyBuf.WriteTo(h.res)
		// Check if error exists
		if err != nil {
			// Headers are already sent, only log
			h.getLogger().Error(errors.WithStack(err))
		}
	}

	return nil
}

func (*handler) manageHeaders(helpersContent string, headersTpl map[string]string, hData interface{}) (map[string]string, error) {
	// Store result
	res := map[string]string{}

	// Loop over all headers asked
	for k, htpl := range headersTpl {
		// Concat helpers to header template
		tpl := helpersContent + "\n" + htpl
		// Execute template
		buf, err := templateutils.ExecuteTemplate(tpl, hData)
		// Check error
		if err != nil {
			return nil, err
		}
		// Get string from buffer
		str := buf.String()
		// Remove all new lines
		str = utils.NewLineMatcherRegex.ReplaceAllString(str, "")
		// Save data only if the header isn't empty
		if str != "" {
			// Save
			res[k] = str
		}
	}

	// Return
	return res, nil
}
