package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"mediabot/internal/models"
)

var urlPattern = regexp.MustCompile(`(?i)https?://\S+`)

// Rule maps one allow-listed domain to a platform tag.
type Rule struct {
	Domain   string
	Platform models.Platform
}

// DefaultRules is the allow-list in match order.
var DefaultRules = []Rule{
	{"youtube.com", models.PlatformYouTube},
	{"youtu.be", models.PlatformYouTube},
	{"facebook.com", models.PlatformFacebook},
	{"fb.watch", models.PlatformFacebook},
	{"instagram.com", models.PlatformInstagram},
	{"instagr.am", models.PlatformInstagram},
	{"tiktok.com", models.PlatformTikTok},
	{"vm.tiktok.com", models.PlatformTikTok},
	{"twitter.com", models.PlatformTwitter},
	{"x.com", models.PlatformTwitter},
	{"reddit.com", models.PlatformReddit},
	{"redd.it", models.PlatformReddit},
	{"pinterest.com", models.PlatformPinterest},
	{"pin.it", models.PlatformPinterest},
	{"likee.video", models.PlatformLikee},
	{"twitch.tv", models.PlatformTwitch},
	{"dailymotion.com", models.PlatformDailymotion},
	{"dai.ly", models.PlatformDailymotion},
	{"vimeo.com", models.PlatformVimeo},
}

type Classifier struct {
	rules []Rule
}

func NewDefault() *Classifier {
	return &Classifier{rules: DefaultRules}
}

// New builds a classifier from a domain allow-list. Domains found in
// DefaultRules keep their platform; any other domain is tagged with its
// first label ("bilibili.com" -> "bilibili").
func New(domains []string) *Classifier {
	known := make(map[string]models.Platform, len(DefaultRules))
	for _, r := range DefaultRules {
		known[r.Domain] = r.Platform
	}

	rules := make([]Rule, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}

		p, ok := known[d]
		if !ok {
			p = models.Platform(strings.SplitN(d, ".", 2)[0])
		}

		rules = append(rules, Rule{Domain: d, Platform: p})
	}

	return &Classifier{rules: rules}
}

// Classify returns the platform of rawURL or models.PlatformUnsupported.
func (c *Classifier) Classify(rawURL string) models.Platform {
	host := hostOf(rawURL)
	if host == "" {
		return models.PlatformUnsupported
	}

	for _, r := range c.rules {
		if host == r.Domain || strings.HasSuffix(host, "."+r.Domain) {
			return r.Platform
		}
	}

	return models.PlatformUnsupported
}

func (c *Classifier) Supported(rawURL string) bool {
	return c.Classify(rawURL).Supported()
}

// Platforms lists the distinct platform tags in allow-list order.
func (c *Classifier) Platforms() []models.Platform {
	seen := make(map[models.Platform]struct{}, len(c.rules))
	out := make([]models.Platform, 0, len(c.rules))

	for _, r := range c.rules {
		if _, ok := seen[r.Platform]; ok {
			continue
		}
		seen[r.Platform] = struct{}{}
		out = append(out, r.Platform)
	}

	return out
}

// FindURLs returns every http(s) link in text, in order of appearance.
func FindURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

func hostOf(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	return strings.TrimSuffix(u.Hostname(), ".")
}
