// Package bedrock implements vectorindex.Embedder against AWS Bedrock's
// Titan embedding model by issuing bedrockruntime.InvokeModel directly.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Config configures the Bedrock embedding client.
type Config struct {
	Region string
	Model  string // e.g. "amazon.titan-embed-text-v2:0"
}

func DefaultConfig() Config {
	return Config{Region: "us-east-1", Model: "amazon.titan-embed-text-v2:0"}
}

// Embedder calls bedrockruntime.InvokeModel against a Titan embedding
// model and parses its JSON response body.
type Embedder struct {
	cfg    Config
	client *bedrockruntime.Client
}

// New loads the default AWS credential chain (environment, shared
// config, EC2/ECS role) and constructs the Bedrock client.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultConfig().Region
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}
	return &Embedder{
		cfg:    cfg,
		client: bedrockruntime.NewFromConfig(awsCfg),
	}, nil
}

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(titanEmbedRequest{InputText: text})
	if err != nil {
		return nil, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.cfg.Model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: invoke model: %w", err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("bedrock: decode response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, nil
	}
	return resp.Embedding, nil
}
