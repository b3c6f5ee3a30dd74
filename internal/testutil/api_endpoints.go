package testutil

const (
	HealthCheckEndpoint = "/health"
	SignupEndpoint      = "/auth/signup"
	SigninEndpoint      = "/auth/signin"
	MeEndpoint          = "/auth/me"
	GadgetsEndpoint     = "/gadgets"
	GadgetEndpoint      = "/gadgets/" // Append gadget ID dynamically
)

// SelfDestructEndpoint returns the self-destruct path for a gadget id
func SelfDestructEndpoint(id string) string {
	return GadgetEndpoint + id + "/self-destruct"
}
