// devserver exposes the task handlers over plain HTTP for local development.
// It injects a static principal instead of running the token authorizer, so
// never deploy it anywhere reachable.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"taskline/internal/handler"
	"taskline/internal/logging"
	"taskline/internal/store"
)

type devConfig struct {
	Addr     string `yaml:"addr"`
	Table    string `yaml:"table"`
	GSI      string `yaml:"gsi"`
	Endpoint string `yaml:"endpoint"`
	LogLevel string `yaml:"log_level"`

	Principal struct {
		TenantID string `yaml:"tenant_id"`
		UserID   string `yaml:"user_id"`
		Role     string `yaml:"role"`
		Email    string `yaml:"email"`
	} `yaml:"principal"`
}

func loadConfig(path string) (devConfig, error) {
	cfg := devConfig{Addr: ":8080", GSI: "GSI1", LogLevel: "debug"}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Table == "" {
		return cfg, fmt.Errorf("%s: table is required", path)
	}
	if cfg.Principal.TenantID == "" || cfg.Principal.UserID == "" || cfg.Principal.Role == "" {
		return cfg, fmt.Errorf("%s: principal tenant_id, user_id and role are required", path)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "devserver.yml", "config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	h := &handler.Handlers{
		Store: store.New(client, cfg.Table, cfg.GSI),
		Log:   logger,
		NewID: uuid.NewString,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", bridge(cfg, h.Create))
		r.Get("/", bridge(cfg, h.List))
		r.Put("/{id}", bridge(cfg, h.Update))
		r.Delete("/{id}", bridge(cfg, h.Delete))
	})

	log.Printf("devserver listening on %s (tenant %s, role %s)",
		cfg.Addr, cfg.Principal.TenantID, cfg.Principal.Role)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}

type proxyHandler func(context.Context, lambdaevents.APIGatewayProxyRequest) lambdaevents.APIGatewayProxyResponse

// bridge converts an incoming HTTP request into the proxy-event shape the
// handlers consume and writes the proxy response back out.
func bridge(cfg devConfig, fn proxyHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}

		query := map[string]string{}
		for k, vs := range r.URL.Query() {
			if len(vs) > 0 {
				query[k] = vs[0]
			}
		}
		pathParams := map[string]string{}
		if id := chi.URLParam(r, "id"); id != "" {
			pathParams["id"] = id
		}

		req := lambdaevents.APIGatewayProxyRequest{
			HTTPMethod:            r.Method,
			Path:                  r.URL.Path,
			Body:                  string(body),
			QueryStringParameters: query,
			PathParameters:        pathParams,
			RequestContext: lambdaevents.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{
					"tenant_id": cfg.Principal.TenantID,
					"user_id":   cfg.Principal.UserID,
					"role":      cfg.Principal.Role,
					"email":     cfg.Principal.Email,
				},
				Identity: lambdaevents.APIGatewayRequestIdentity{
					SourceIP: r.RemoteAddr,
				},
			},
		}

		res := fn(r.Context(), req)
		for k, v := range res.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(res.StatusCode)
		_, _ = w.Write([]byte(res.Body))
	}
}
