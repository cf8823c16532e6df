package auth

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
)

// Policy document construction for the request authorizer. An allow carries
// the claims as forwarded context for handlers; a deny carries none.

func AllowPolicy(resource string, c Claims) events.APIGatewayCustomAuthorizerResponse {
	res := policy("Allow", resource)
	res.PrincipalID = c.UserID
	res.Context = map[string]any{
		"tenant_id": c.TenantID,
		"user_id":   c.UserID,
		"role":      c.Role,
		"email":     c.Email,
	}
	return res
}

func DenyPolicy(resource string) events.APIGatewayCustomAuthorizerResponse {
	return policy("Deny", resource)
}

func policy(effect, resource string) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: "unknown",
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		},
	}
}

// Authorize implements the full token-to-policy decision. Every failure path,
// including a panic during verification, degrades to deny.
func Authorize(ctx context.Context, v *Verifier, req events.APIGatewayCustomAuthorizerRequest) (res events.APIGatewayCustomAuthorizerResponse) {
	defer func() {
		if recover() != nil {
			res = DenyPolicy(req.MethodArn)
		}
	}()

	token, ok := BearerToken(req.AuthorizationToken)
	if !ok {
		return DenyPolicy(req.MethodArn)
	}
	claims, err := v.Verify(ctx, token)
	if err != nil {
		return DenyPolicy(req.MethodArn)
	}
	return AllowPolicy(req.MethodArn, claims)
}
