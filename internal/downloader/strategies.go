package downloader

// AuthMode selects how a strategy identifies itself to the platform.
type AuthMode string

const (
	// AuthNone is anonymous access.
	AuthNone AuthMode = "none"
	// AuthCookieFile attaches the configured browser cookie export when
	// the file holds real content; otherwise the attempt degrades to
	// anonymous access.
	AuthCookieFile AuthMode = "cookie-file"
	// AuthMobileAgent impersonates a mobile client without credentials.
	AuthMobileAgent AuthMode = "mobile-agent"
)

// Strategy is one immutable acquisition profile. The set is built once
// at process start; per-request state lives in the attempt log, never
// here.
type Strategy struct {
	Ordinal         int
	Name            string
	QualitySelector string
	AuthMode        AuthMode
	UserAgent       string
	GeoBypass       bool
	AudioOnly       bool
}

// Browser identities rotated across strategies. Pinned strings rather
// than generated ones: the platform's obstacle checks compare against
// real browser fingerprints.
const (
	uaFirefoxWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0"
	uaSafariMac      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15"
	uaSafariIPhone   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1"
	uaChromeAndroid  = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Mobile Safari/537.36"
	uaFirefoxLinux   = "Mozilla/5.0 (X11; Linux x86_64; rv:132.0) Gecko/20100101 Firefox/132.0"
	uaSmartTV        = "Mozilla/5.0 (SMART-TV; Linux; Tizen 6.5) AppleWebKit/537.36 (KHTML, like Gecko) Version/6.5 TV Safari/537.36"
	uaConsole        = "Mozilla/5.0 (PlayStation; PlayStation 5/6.50) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
)

const bestSelector = "best[height<=720][ext=mp4]/best[height<=720]/best[ext=mp4]/best/worst"

// DefaultStrategies returns the ordered acquisition profiles. Order
// matters: cheap anonymous fetches first, then authenticated and
// disguised clients, then progressively degraded quality, with
// audio-only as the last resort.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Ordinal:         1,
			Name:            "best_quality",
			QualitySelector: bestSelector,
			AuthMode:        AuthNone,
			UserAgent:       uaFirefoxWindows,
		},
		{
			Ordinal:         2,
			Name:            "cookie_auth",
			QualitySelector: bestSelector,
			AuthMode:        AuthCookieFile,
			UserAgent:       uaSafariMac,
		},
		{
			Ordinal:         3,
			Name:            "mobile_client",
			QualitySelector: "best[height<=480]/worst",
			AuthMode:        AuthMobileAgent,
			UserAgent:       uaSafariIPhone,
		},
		{
			Ordinal:         4,
			Name:            "geo_bypass",
			QualitySelector: "worst/best",
			AuthMode:        AuthNone,
			UserAgent:       uaChromeAndroid,
			GeoBypass:       true,
		},
		{
			Ordinal:         5,
			Name:            "worst_quality",
			QualitySelector: "worst",
			AuthMode:        AuthNone,
			UserAgent:       uaFirefoxLinux,
		},
		{
			Ordinal:         6,
			Name:            "legacy_formats",
			QualitySelector: "18/22/36/17/13/5",
			AuthMode:        AuthNone,
			UserAgent:       uaSmartTV,
		},
		{
			Ordinal:         7,
			Name:            "audio_only",
			QualitySelector: "bestaudio[ext=m4a]/bestaudio[ext=mp3]/bestaudio",
			AuthMode:        AuthNone,
			UserAgent:       uaConsole,
			AudioOnly:       true,
		},
	}
}
