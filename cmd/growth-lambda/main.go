// Command growth-lambda serves the REST API from AWS Lambda behind API Gateway.
// GROWTH_SERVICE selects which service the function mounts.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	fiberadapter "github.com/awslabs/aws-lambda-go-api-proxy/fiber"

	"github.com/julianstephens/growthtrack/internal/api"
	"github.com/julianstephens/growthtrack/internal/bootstrap"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/logger"
)

var adapter *fiberadapter.FiberLambda

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	core, err := bootstrap.StartLambda(context.Background())
	if err != nil {
		apperrors.Fatal(err)
	}

	app, err := api.New(core.Services, core.APIOptions())
	if err != nil {
		apperrors.Fatal(err)
	}
	adapter = fiberadapter.New(app)

	logger.Info("Lambda ready", "service", core.Config.Server.Service, "storage", core.Store.Describe())
	lambda.Start(handler)
}
