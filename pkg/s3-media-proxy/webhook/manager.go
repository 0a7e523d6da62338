package webhook

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/tracing"
)

// HookNumberOfRedirect will contains the number of redirect that a hook can follow.
const HookNumberOfRedirect = 20

// HookTimeout is the timeout of one webhook attempt.
const HookTimeout = 30 * time.Second

var (
	timeNow = time.Now
	newUUID = func() string { return uuid.New().String() }
)

type manager struct {
	cfgManager config.Manager
	metricsSvc metrics.Client
	logger     log.Logger
	storage    atomic.Pointer[hooksCfgStorage]
	clock      func() time.Time
	newEventID func() string
}

type hooksCfgStorage struct {
	Put    []*hookStorage
	Delete []*hookStorage
}

type hookStorage struct {
	Client *resty.Client
	Config *config.WebhookConfig
	Name   string
}

func (m *manager) Load() error {
	// Get configuration
	cfg := m.cfgManager.GetConfig()

	// Create storage structure
	entry := &hooksCfgStorage{
		Put:    []*hookStorage{},
		Delete: []*hookStorage{},
	}

	// Create clients
	list, err := m.createRestClients(cfg.Webhooks)
	// Check error
	if err != nil {
		return err
	}

	// Dispatch by action
	for _, st := range list {
		if st.Config.HasWebhookFor(PUTAction) {
			entry.Put = append(entry.Put, st)
		}

		if st.Config.HasWebhookFor(DELETEAction) {
			entry.Delete = append(entry.Delete, st)
		}
	}

	// Swap
	m.storage.Store(entry)

	return nil
}

func (m *manager) createRestClients(list []*config.WebhookConfig) ([]*hookStorage, error) {
	// Create result
	res := []*hookStorage{}

	// Loop over the list
	for i, it := range list {
		// Create client
		cli := resty.New().
			SetTimeout(HookTimeout).
			SetLogger(m.logger.GetUpstreamLogger())

		// Manage wait time
		if it.DefaultWaitTime != "" {
			// Parse duration
			dur, err := time.ParseDuration(it.DefaultWaitTime)
			// Check error
			if err != nil {
				return nil, errors.WithStack(err)
			}
			// Add it
			cli = cli.SetRetryWaitTime(dur)
		}

		// Manage max wait time
		if it.MaxWaitTime != "" {
			// Parse duration
			dur, err := time.ParseDuration(it.MaxWaitTime)
			// Check error
			if err != nil {
				return nil, errors.WithStack(err)
			}
			// Add it
			cli = cli.SetRetryMaxWaitTime(dur)
		}

		// Manage retry count
		if it.RetryCount != 0 {
			// Add
			cli = cli.SetRetryCount(it.RetryCount).
				AddRetryCondition(func(r *resty.Response, err error) bool {
					return err != nil || r.StatusCode() >= http.StatusInternalServerError
				})
		}

		// Set redirect policy
		cli = cli.SetRedirectPolicy(resty.FlexibleRedirectPolicy(HookNumberOfRedirect))

		// Append
		res = append(res, &hookStorage{
			Client: cli,
			Config: it,
			Name:   hookName(i, it),
		})
	}

	return res, nil
}

// hookName returns the configured name or the url host.
func hookName(i int, it *config.WebhookConfig) string {
	if it.Name != "" {
		return it.Name
	}

	u, err := url.Parse(it.URL)
	if err != nil || u.Host == "" {
		return "webhook-" + strconv.Itoa(i)
	}

	return u.Host
}

func (m *manager) ManageDELETEHooks(
	ctx context.Context,
	requestPath string,
	s3Metadata *S3Metadata,
) {
	// Separate functions to test logic without routine
	go m.manageDELETEHooksInternal(context.WithoutCancel(ctx), requestPath, s3Metadata)
}

func (m *manager) manageDELETEHooksInternal(
	ctx context.Context,
	requestPath string,
	s3Metadata *S3Metadata,
) {
	// Get target storage
	sto := m.storage.Load()

	// Check if storage is empty
	if sto == nil || len(sto.Delete) == 0 {
		// Stop here
		m.getLogger(ctx).Debugf("No DELETE hook declared for %s", requestPath)

		return
	}

	// Run hooks
	m.runHooks(ctx, m.newBody(DELETEAction, requestPath, s3Metadata), sto.Delete)
}

func (m *manager) ManagePUTHooks(
	ctx context.Context,
	requestPath string,
	metadata *PutInputMetadata,
	s3Metadata *S3Metadata,
) {
	// Separate functions to test logic without routine
	go m.managePUTHooksInternal(context.WithoutCancel(ctx), requestPath, metadata, s3Metadata)
}

func (m *manager) managePUTHooksInternal(
	ctx context.Context,
	requestPath string,
	metadata *PutInputMetadata,
	s3Metadata *S3Metadata,
) {
	// Get target storage
	sto := m.storage.Load()

	// Check if storage is empty
	if sto == nil || len(sto.Put) == 0 {
		// Stop here
		m.getLogger(ctx).Debugf("No PUT hook declared for %s", requestPath)

		return
	}

	// Create body
	body := m.newBody(PUTAction, requestPath, s3Metadata)
	// Add input metadata
	body.InputMetadata = &PutInputMetadataHookBody{
		ContentType: metadata.ContentType,
		ContentSize: metadata.ContentSize,
	}

	// Run hooks
	m.runHooks(ctx, body, sto.Put)
}

func (m *manager) newBody(action, requestPath string, s3Metadata *S3Metadata) *HookBody {
	return &HookBody{
		EventID:     m.newEventID(),
		Time:        m.clock().UTC().Format(time.RFC3339Nano),
		Action:      action,
		RequestPath: requestPath,
		Bucket:      s3Metadata.BucketRef,
		Key:         s3Metadata.Key,
		OutputMetadata: &OutputMetadataHookBody{
			Bucket:     s3Metadata.Bucket,
			Region:     s3Metadata.Region,
			S3Endpoint: s3Metadata.S3Endpoint,
			Key:        s3Metadata.Key,
		},
	}
}

func (m *manager) runHooks(
	ctx context.Context,
	body *HookBody,
	hookClients []*hookStorage,
) {
	// Get logger
	logger := m.getLogger(ctx).WithField("webhook_event_id", body.EventID)

	// Need to create an intermediate function to manage defer properly
	executeOne := func(st *hookStorage) {
		// Create specific logger
		spLogger := logger.WithFields(map[string]interface{}{
			"webhook_action": body.Action,
			"webhook_name":   st.Name,
		})

		// Create child trace
		childTrace := tracing.StartChildTrace(ctx, "webhook")
		childTrace.SetTag("webhook-url", st.Config.URL)
		childTrace.SetTag("webhook-method", st.Config.Method)

		defer childTrace.Finish()

		// Save client
		cl := st.Client.R().SetContext(ctx)
		// Add all fixed headers
		for k, val := range st.Config.Headers {
			// Add header
			cl = cl.SetHeader(k, val)
		}
		// Add all secret headers
		for k, val := range st.Config.SecretHeaders {
			// Add header
			cl = cl.SetHeader(k, val.Value)
		}
		// Add content-type
		cl = cl.SetHeader("Content-Type", "application/json")
		// Add body
		cl = cl.SetBody(body)
		// Add trace to http header for forwarding
		err := childTrace.InjectInHTTPHeader(cl.Header)
		// Check error
		if err != nil {
			spLogger.Error(err)

			// Stop here
			return
		}
		// Log
		spLogger.Debug("Executing webhook")
		// Execute request
		res, err := cl.Execute(st.Config.Method, st.Config.URL)
		// Check error
		if err != nil {
			// Log
			spLogger.Error(errors.WithStack(err))

			// Increase failed webhooks
			m.metricsSvc.IncFailedWebhooks(st.Name, body.Action)

			// Stop here
			return
		}
		// Add status code to logger
		spLogger = spLogger.WithField("webhook_status_code", strconv.Itoa(res.StatusCode()))
		// Check status code
		if res.StatusCode() >= http.StatusBadRequest {
			// Log without answer body
			spLogger.Error(errors.Errorf("webhook answered with status %d", res.StatusCode()))

			// Increase failed webhooks
			m.metricsSvc.IncFailedWebhooks(st.Name, body.Action)

			// Stop here
			return
		}

		spLogger.Info("Webhook succeed")

		// Increase succeed webhooks
		m.metricsSvc.IncSucceedWebhooks(st.Name, body.Action)
	}

	// Loop over clients to perform requests
	for _, st := range hookClients {
		executeOne(st)
	}
}

func (m *manager) getLogger(ctx context.Context) log.Logger {
	logger := log.GetLoggerFromContext(ctx)
	if logger == nil {
		return m.logger
	}

	return logger
}
