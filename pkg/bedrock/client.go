package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"github.com/angelmondragon/retailpipe/pkg/config"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

const (
	taskTypeTextImage = "TEXT_IMAGE"
	contentTypeJSON   = "application/json"
	throttlingCode    = "ThrottlingException"
)

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// ImageRequest describes a single text-to-image call.
type ImageRequest struct {
	Prompt        string
	Width         int
	Height        int
	Count         int
	GuidanceScale float64
	Seed          int64
}

// Client invokes a text-to-image model through the Bedrock runtime.
type Client struct {
	api     invoker
	modelID string
}

// NewClient builds a Bedrock runtime client from the default credential chain.
func NewClient(ctx context.Context, cfg config.ImageGenConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ModelID) == "" {
		return nil, errors.New("bedrock model id is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.ReadTimeout > 0 {
		opts = append(opts, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.ReadTimeout)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "load aws config")
	}
	// Retries are owned by the caller's backoff policy.
	api := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.RetryMaxAttempts = 1
	})
	return newClient(api, cfg.ModelID), nil
}

func newClient(api invoker, modelID string) *Client {
	return &Client{api: api, modelID: modelID}
}

type textToImageBody struct {
	TaskType          string            `json:"taskType"`
	TextToImageParams textToImageParams `json:"textToImageParams"`
	Config            generationConfig  `json:"imageGenerationConfig"`
}

type textToImageParams struct {
	Text string `json:"text"`
}

type generationConfig struct {
	NumberOfImages int     `json:"numberOfImages"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	CfgScale       float64 `json:"cfgScale"`
	Seed           int64   `json:"seed"`
}

type imageResponse struct {
	Images []string `json:"images"`
	Error  *string  `json:"error"`
}

// GenerateImage issues one call and returns the first decoded image payload.
// Throttling surfaces as a RATE_LIMITED error; every other failure is final.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	count := req.Count
	if count <= 0 {
		count = 1
	}
	body, err := json.Marshal(textToImageBody{
		TaskType:          taskTypeTextImage,
		TextToImageParams: textToImageParams{Text: req.Prompt},
		Config: generationConfig{
			NumberOfImages: count,
			Height:         req.Height,
			Width:          req.Width,
			CfgScale:       req.GuidanceScale,
			Seed:           req.Seed,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
	})
	if err != nil {
		return nil, classify(err)
	}
	return decodeResponse(out.Body)
}

func decodeResponse(raw []byte) ([]byte, error) {
	var resp imageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode response body")
	}
	if resp.Error != nil {
		return nil, pkgerrors.New(pkgerrors.CodeGeneration, fmt.Sprintf("model error: %s", *resp.Error))
	}
	if len(resp.Images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGeneration, "no images returned")
	}
	payload, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decode image payload")
	}
	return payload, nil
}

// classify maps SDK errors onto the pipeline's error codes.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invoke model")
	}
	if isThrottle(err) {
		return pkgerrors.Wrap(pkgerrors.CodeRateLimited, err, "invoke model throttled")
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "invoke model rejected").
			WithDetails(map[string]any{"code": apiErr.ErrorCode()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invoke model")
}

func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == throttlingCode {
			return true
		}
		if strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "throttl") {
			return true
		}
	}
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "throttl")
}

