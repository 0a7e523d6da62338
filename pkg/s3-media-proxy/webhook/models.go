package webhook

const (
	PUTAction    = "PUT"
	DELETEAction = "DELETE"
)

// HookBody is sent to webhooks.
// Bucket and key fields can be posted as is to the cache invalidation endpoint of other instances.
type HookBody struct {
	InputMetadata  *PutInputMetadataHookBody `json:"inputMetadata,omitempty"`
	OutputMetadata *OutputMetadataHookBody   `json:"outputMetadata"`
	EventID        string                    `json:"eventId"`
	Time           string                    `json:"time"`
	Action         string                    `json:"action"`
	RequestPath    string                    `json:"requestPath"`
	Bucket         string                    `json:"bucket"`
	Key            string                    `json:"key"`
}

type PutInputMetadataHookBody struct {
	ContentType string `json:"contentType"`
	ContentSize int64  `json:"contentSize"`
}

type OutputMetadataHookBody struct {
	Bucket     string `json:"bucket"`
	Region     string `json:"region"`
	S3Endpoint string `json:"s3Endpoint,omitempty"`
	Key        string `json:"key"`
}
