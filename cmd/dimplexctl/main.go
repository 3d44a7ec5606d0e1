// dimplexctl is a small demo binary for the dimplex-go client library. It
// authenticates against the Dimplex Control cloud (reusing a stored token
// file when one exists), then walks the account's hubs, zones and appliances
// and prints a real-time overview.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dimplex-community/dimplex-go/pkg/auth"
	"github.com/dimplex-community/dimplex-go/pkg/config"
	"github.com/dimplex-community/dimplex-go/pkg/dimplex"
	"github.com/dimplex-community/dimplex-go/pkg/logger"
	"github.com/dimplex-community/dimplex-go/pkg/metrics"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	httpClient := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	authenticator := auth.NewAuthenticator(httpClient, log)
	fileStore := auth.NewFileStore(cfg.TokenPath)

	cred, err := bootstrapCredential(ctx, cfg, authenticator, fileStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication error: %v\n", err)
		os.Exit(1)
	}

	store := auth.NewStore(cred, fileStore, log)

	clientMetrics, err := metrics.NewClientMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Metrics error: %v\n", err)
		os.Exit(1)
	}

	client := dimplex.NewClient(httpClient, store, authenticator, clientMetrics, log)
	api := dimplex.NewAPIWithCircuitBreaker(client, dimplex.DefaultCircuitBreakerConfig())

	if err := printAccountOverview(ctx, api); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrapCredential loads the stored credential, or runs the first-time
// login when none exists: headless when account credentials are configured,
// otherwise interactive code paste.
func bootstrapCredential(ctx context.Context, cfg *config.Config, authenticator *auth.Authenticator, fileStore *auth.FileStore) (*auth.Credential, error) {
	cred, err := fileStore.Load()
	if err != nil {
		return nil, err
	}
	if cred != nil {
		fmt.Printf("Using stored tokens from %s\n", cfg.TokenPath)
		return cred, nil
	}

	var fresh auth.Credential
	if cfg.Email != "" {
		fmt.Println("No stored tokens, performing headless login...")
		fresh, err = authenticator.HeadlessLogin(ctx, cfg.Email, cfg.Password)
	} else {
		fresh, err = interactiveLogin(ctx, authenticator)
	}
	if err != nil {
		return nil, err
	}

	if err := fileStore.Save(fresh); err != nil {
		return nil, err
	}
	fmt.Printf("Authentication successful, tokens saved to %s\n", cfg.TokenPath)
	return &fresh, nil
}

func interactiveLogin(ctx context.Context, authenticator *auth.Authenticator) (auth.Credential, error) {
	fmt.Printf("\nPlease visit this URL to login:\n\n%s\n\n", authenticator.LoginURL())
	fmt.Println("The final redirect targets the mobile app's custom scheme and will fail in a browser.")
	fmt.Println("Capture it from the browser's network tab (look for the request starting with 'msal')")
	fmt.Print("and paste the full redirect URL or just the code here: ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return auth.Credential{}, err
	}

	code := extractCode(strings.TrimSpace(input))
	if code == "" {
		return auth.Credential{}, fmt.Errorf("could not find an authorization code in the input")
	}

	return authenticator.ExchangeCode(ctx, code)
}

// extractCode accepts either a bare authorization code or a full redirect URL
// carrying a code query parameter.
func extractCode(input string) string {
	if !strings.Contains(input, "code=") {
		return input
	}
	if parsed, err := url.Parse(input); err == nil {
		if code := parsed.Query().Get("code"); code != "" {
			return code
		}
	}
	// Fall back to cutting the parameter out by hand for inputs that do not
	// parse as URLs (custom app schemes pasted with surrounding text).
	rest := input[strings.Index(input, "code=")+len("code="):]
	if amp := strings.IndexByte(rest, '&'); amp >= 0 {
		rest = rest[:amp]
	}
	return rest
}

func printAccountOverview(ctx context.Context, api dimplex.API) error {
	user, err := api.GetUserContext(ctx)
	if err != nil {
		return fmt.Errorf("fetching user context: %w", err)
	}
	fmt.Printf("\nLogged in as: %s (%s)\n", user.Name, user.EmailAddress)

	hubs, err := api.GetHubs(ctx)
	if err != nil {
		return fmt.Errorf("fetching hubs: %w", err)
	}
	fmt.Printf("Found %d hubs\n", len(hubs))

	for _, hub := range hubs {
		fmt.Printf("\n[Hub] %s (ID: %s)\n", hub.DisplayName(), hub.HubID)

		zones, err := api.GetHubZones(ctx, hub.HubID)
		if err != nil {
			return fmt.Errorf("fetching zones for hub %s: %w", hub.HubID, err)
		}

		var applianceIDs []string
		for _, zone := range zones {
			fmt.Printf("  - %s (%s)\n", zone.ZoneName, zone.ZoneType)
			for _, appliance := range zone.Appliances {
				fmt.Printf("    * %s - %s (ID: %s)\n", appliance.ApplianceModel, appliance.FriendlyName, appliance.ApplianceID)
				applianceIDs = append(applianceIDs, appliance.ApplianceID)

				features, err := api.GetApplianceFeatures(ctx, hub.HubID, appliance.ApplianceID)
				if err != nil {
					fmt.Printf("      (could not fetch schedule: %v)\n", err)
					continue
				}
				fmt.Printf("      Mode: %d | Periods: %d\n", features.TimerMode, len(features.TimerPeriods))
			}
		}

		if len(applianceIDs) == 0 {
			continue
		}

		statuses, err := api.GetApplianceOverview(ctx, hub.HubID, applianceIDs)
		if err != nil {
			fmt.Printf("  (could not fetch overview: %v)\n", err)
			continue
		}

		fmt.Println("\n  --- Real-time Overview ---")
		for _, status := range statuses {
			fmt.Printf("    * %s:\n", status.ApplianceID)
			if status.RoomTemperature != nil {
				fmt.Printf("      - Temp: %.1f°C", *status.RoomTemperature)
				if status.ActiveSetPointTemperature != nil {
					fmt.Printf(" | Target: %d°C", *status.ActiveSetPointTemperature)
				}
				fmt.Println()
			}
			if status.EcoStartEnabled != nil {
				fmt.Printf("      - EcoStart: %v\n", *status.EcoStartEnabled)
			}
			if status.BoostDuration != nil && *status.BoostDuration > 0 && status.BoostTemperature != nil {
				fmt.Printf("      - BOOST ACTIVE: %.1f°C for %d mins\n", *status.BoostTemperature, *status.BoostDuration)
			}
		}
	}
	return nil
}
