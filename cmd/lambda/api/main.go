package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	lambdapkg "tailor-billing-api/pkg/lambda"
)

func main() {
	lambda.Start(lambdapkg.GetConnectionManager().Handle)
}
