package banner

import (
	"fmt"
	"strings"

	"gramdb/pkg/config"
)

const banner = `
 ██████╗ ██████╗  █████╗ ███╗   ███╗██████╗ ██████╗
██╔════╝ ██╔══██╗██╔══██╗████╗ ████║██╔══██╗██╔══██╗
██║  ███╗██████╔╝███████║██╔████╔██║██║  ██║██████╔╝
██║   ██║██╔══██╗██╔══██║██║╚██╔╝██║██║  ██║██╔══██╗
╚██████╔╝██║  ██║██║  ██║██║ ╚═╝ ██║██████╔╝██████╔╝
 ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚═╝╚═════╝ ╚═════╝
`

func Print(addr, dataDir, sources, version string) {
	// Deprecated: previous signature printed explicit fields. Newer callers
	// pass an effective config so we can display runtime info (digest,
	// config sources) centrally.
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Data Dir: %s\n", dataDir)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /users - Create a user (JSON: username, display_name, bio, profile_pic_url)")
	fmt.Println("GET  /feed/{user_id} - Posts from followed users (JSON response)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/users' -d '{\"username\": \"alice\", \"display_name\": \"Alice\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/feed/<user_id>'\n", addr)
	fmt.Println("\n== Production? =================================================")
	fmt.Println("Set a proper state path (--data)")
	fmt.Println("Put an authenticating proxy in front for production use")
}

// PrintWithEff prints the banner using an EffectiveConfigResult which
// provides richer context (config, addr, data dir, source).
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	var addr = eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	var dataDir = eff.DataDir
	if dataDir == "" && eff.Config != nil {
		dataDir = eff.Config.Server.DataDir
	}
	var src = eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Data Dir: %s\n", dataDir)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config: %s\n", src)

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl -X POST 'http://<host>:<port>/users' -d '{\"username\": \"alice\", \"display_name\": \"Alice\"}'")
	fmt.Println("curl 'http://<host>:<port>/explore?limit=10'")
	fmt.Println("\n== Production? =================================================")

	// TLS
	tlsOK := false
	if eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		tlsOK = true
	}
	if tlsOK {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	// CORS
	origins := 0
	if eff.Config != nil {
		origins = len(eff.Config.Server.CORS.AllowedOrigins)
	}
	if origins > 0 {
		fmt.Printf("- CORS origins: %d\n", origins)
	} else {
		fmt.Println("- CORS origins: none (browser clients on other origins will be refused)")
	}

	// Data dir
	if eff.DataDir != "" {
		fmt.Printf("- Data Dir: %s\n", eff.DataDir)
	} else {
		fmt.Println("- Data Dir: not set (use --data or GRAMDB_SERVER_DATA_DIR)")
	}

	// Digest
	digEnabled := false
	digInfo := ""
	if eff.Config != nil {
		digEnabled = eff.Config.Digest.Enabled
		if digEnabled && eff.Config.Digest.Cron != "" {
			digInfo = "cron=" + eff.Config.Digest.Cron
		}
	}
	if digEnabled {
		if digInfo != "" {
			fmt.Printf("- Digest: enabled (%s)\n", digInfo)
		} else {
			fmt.Println("- Digest: enabled")
		}
	} else {
		fmt.Println("- Digest: disabled")
	}

	// Telemetry
	if eff.Config != nil && eff.Config.Telemetry.SampleRate > 0 {
		rate := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", eff.Config.Telemetry.SampleRate), "0"), ".")
		fmt.Printf("- Telemetry: sampling %s of requests\n", rate)
	} else {
		fmt.Println("- Telemetry: disabled")
	}

	fmt.Println("\nRead the config docs for tuning the sensor and digest: docs/configs/README.md")

	fmt.Println("\n== Logs: =================================================")
}
