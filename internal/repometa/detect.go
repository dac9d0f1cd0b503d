package repometa

import (
	"path"
	"regexp"
	"strings"
)

// Category is a technology stack bucket.
type Category string

const (
	CategoryLanguage Category = "languages"
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryDatabase Category = "databases"
	CategoryDevOps   Category = "devops"
)

type filePattern struct {
	pattern string // lowercase substring of the file path
	techs   []string
}

// filePatterns is evaluated in order against every file hint.
var filePatterns = []filePattern{
	{"package.json", []string{"Node.js", "JavaScript", "npm"}},
	{"requirements.txt", []string{"Python"}},
	{"pipfile", []string{"Python"}},
	{"pyproject.toml", []string{"Python"}},
	{"cargo.toml", []string{"Rust"}},
	{"go.mod", []string{"Go"}},
	{"pom.xml", []string{"Java", "Maven"}},
	{"build.gradle", []string{"Java", "Gradle"}},
	{"dockerfile", []string{"Docker"}},
	{"docker-compose", []string{"Docker", "Docker Compose"}},
	{"composer.json", []string{"PHP"}},
	{"gemfile", []string{"Ruby"}},
	{"yarn.lock", []string{"Node.js", "Yarn"}},
	{"package-lock.json", []string{"Node.js", "npm"}},
	{"tsconfig.json", []string{"TypeScript"}},
	{"webpack.config", []string{"Webpack"}},
	{"vite.config", []string{"Vite"}},
	{"next.config", []string{"Next.js"}},
	{"nuxt.config", []string{"Nuxt.js"}},
	{"vue.config", []string{"Vue.js"}},
	{"angular.json", []string{"Angular"}},
	{"svelte.config", []string{"Svelte"}},
	{"react", []string{"React"}},
	{"express", []string{"Express"}},
	{"fastapi", []string{"FastAPI"}},
	{"django", []string{"Django"}},
	{"flask", []string{"Flask"}},
	{"rails", []string{"Ruby on Rails"}},
	{"spring", []string{"Spring"}},
	{"laravel", []string{"Laravel"}},
	{"symfony", []string{"Symfony"}},
	{"postgres", []string{"PostgreSQL"}},
	{"mysql", []string{"MySQL"}},
	{"mongo", []string{"MongoDB"}},
	{"redis", []string{"Redis"}},
	{"sqlite", []string{"SQLite"}},
	{"elasticsearch", []string{"Elasticsearch"}},
	{"kafka", []string{"Apache Kafka"}},
	{"rabbitmq", []string{"RabbitMQ"}},
	{"nginx", []string{"Nginx"}},
	{"kubernetes", []string{"Kubernetes"}},
	{"k8s", []string{"Kubernetes"}},
	{"helm", []string{"Helm"}},
	{".tf", []string{"Terraform"}},
	{"terraform", []string{"Terraform"}},
	{"ansible", []string{"Ansible"}},
	{"jenkinsfile", []string{"Jenkins"}},
	{".gitlab-ci", []string{"GitLab CI"}},
	{".travis", []string{"Travis CI"}},
	{"circleci", []string{"CircleCI"}},
}

// Extensions catch languages when no manifest file is present.
var extensionLanguages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".rs":    "Rust",
	".java":  "Java",
	".kt":    "Kotlin",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".js":    "JavaScript",
	".rb":    "Ruby",
	".php":   "PHP",
	".cs":    "C#",
	".cpp":   "C++",
	".swift": "Swift",
}

var techCategories = map[string]Category{
	"JavaScript": CategoryLanguage, "TypeScript": CategoryLanguage, "Python": CategoryLanguage,
	"Java": CategoryLanguage, "Go": CategoryLanguage, "Rust": CategoryLanguage, "PHP": CategoryLanguage,
	"Ruby": CategoryLanguage, "C++": CategoryLanguage, "C#": CategoryLanguage, "Swift": CategoryLanguage,
	"Kotlin": CategoryLanguage,

	"React": CategoryFrontend, "Vue.js": CategoryFrontend, "Angular": CategoryFrontend,
	"Next.js": CategoryFrontend, "Nuxt.js": CategoryFrontend, "Svelte": CategoryFrontend,
	"Webpack": CategoryFrontend, "Vite": CategoryFrontend,

	"Node.js": CategoryBackend, "Express": CategoryBackend, "FastAPI": CategoryBackend,
	"Django": CategoryBackend, "Flask": CategoryBackend, "Ruby on Rails": CategoryBackend,
	"Spring": CategoryBackend, "Laravel": CategoryBackend, "Symfony": CategoryBackend,

	"PostgreSQL": CategoryDatabase, "MySQL": CategoryDatabase, "MongoDB": CategoryDatabase,
	"Redis": CategoryDatabase, "SQLite": CategoryDatabase, "Elasticsearch": CategoryDatabase,
	"Apache Kafka": CategoryDatabase, "RabbitMQ": CategoryDatabase,

	"Docker": CategoryDevOps, "Docker Compose": CategoryDevOps, "Kubernetes": CategoryDevOps,
	"Helm": CategoryDevOps, "Terraform": CategoryDevOps, "Ansible": CategoryDevOps,
	"Jenkins": CategoryDevOps, "GitHub Actions": CategoryDevOps, "GitLab CI": CategoryDevOps,
	"Travis CI": CategoryDevOps, "CircleCI": CategoryDevOps, "Nginx": CategoryDevOps,
	"npm": CategoryDevOps, "Yarn": CategoryDevOps, "Maven": CategoryDevOps, "Gradle": CategoryDevOps,
}

// CategoryOf returns the stack bucket of a known technology.
func CategoryOf(tech string) (Category, bool) {
	c, ok := techCategories[tech]
	return c, ok
}

// detectTechnologies maps file hints to categorized technologies.
func detectTechnologies(files []string) map[Category][]string {
	found := map[Category][]string{}
	seen := map[string]bool{}
	add := func(tech string) {
		if seen[tech] {
			return
		}
		cat, ok := techCategories[tech]
		if !ok {
			return
		}
		seen[tech] = true
		found[cat] = append(found[cat], tech)
	}
	for _, f := range files {
		lower := strings.ToLower(strings.ReplaceAll(f, "\\", "/"))
		if strings.Contains(lower, ".github/workflows/") {
			add("GitHub Actions")
		}
		for _, p := range filePatterns {
			if strings.Contains(lower, p.pattern) {
				for _, t := range p.techs {
					add(t)
				}
			}
		}
		if lang, ok := extensionLanguages[path.Ext(lower)]; ok {
			add(lang)
		}
	}
	return found
}

type keywordRule struct {
	name     string
	keywords []string
}

var domainRules = []keywordRule{
	{"Web Development", []string{"web", "website", "frontend", "backend", "api", "rest", "graphql", "spa", "pwa"}},
	{"Mobile Development", []string{"mobile", "ios", "android", "react-native", "flutter", "xamarin", "cordova"}},
	{"Data Science", []string{"data", "machine learning", "ai", "artificial intelligence", "ml", "deep learning", "neural", "tensorflow", "pytorch"}},
	{"DevOps", []string{"devops", "deployment", "ci/cd", "infrastructure", "monitoring", "logging", "kubernetes", "docker"}},
	{"Game Development", []string{"game", "gaming", "unity", "unreal", "opengl", "directx", "graphics"}},
	{"Blockchain", []string{"blockchain", "cryptocurrency", "bitcoin", "ethereum", "smart contract", "defi", "nft"}},
	{"IoT", []string{"iot", "internet of things", "embedded", "arduino", "raspberry pi", "sensor"}},
	{"Security", []string{"security", "cybersecurity", "encryption", "authentication", "authorization", "vulnerability"}},
	{"Developer Tools", []string{"tool", "library", "framework", "sdk", "cli", "plugin", "extension", "utility"}},
	{"E-commerce", []string{"ecommerce", "e-commerce", "shopping", "payment", "cart", "checkout", "store"}},
	{"Education", []string{"education", "learning", "tutorial", "course", "training", "academic"}},
	{"Healthcare", []string{"healthcare", "medical", "health", "patient", "hospital", "clinical"}},
	{"Finance", []string{"finance", "financial", "banking", "trading", "investment", "accounting"}},
	{"Productivity", []string{"productivity", "collaboration", "project management", "task", "workflow", "automation", "crm"}},
}

var architectureRules = []keywordRule{
	{"Microservices", []string{"microservice", "microservices", "service-oriented", "soa"}},
	{"Monolithic", []string{"monolith", "monolithic", "single application"}},
	{"Event-driven", []string{"event-driven", "pub/sub", "publish", "subscribe", "message broker"}},
	{"Layered", []string{"layered", "n-tier", "three-tier", "presentation layer"}},
	{"MVVM", []string{"mvvm", "model-view-viewmodel", "viewmodel"}},
	{"MVC", []string{"mvc", "model-view-controller"}},
	{"Serverless", []string{"serverless", "lambda", "faas"}},
	{"Client-Server", []string{"client-server", "client server"}},
	{"Peer-to-Peer", []string{"peer-to-peer", "p2p"}},
	{"Plugin", []string{"plugin", "plugins", "extensible"}},
	{"Pipeline", []string{"pipeline", "pipelines"}},
	{"Component-based", []string{"component", "components", "modular"}},
}

// keywordPattern matches kw on word boundaries so "ai" does not hit "maintain".
func keywordPattern(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(kw) + `($|[^a-z0-9])`)
}

type compiledRule struct {
	name     string
	patterns []*regexp.Regexp
}

func compile(rules []keywordRule) []compiledRule {
	out := make([]compiledRule, len(rules))
	for i, r := range rules {
		out[i].name = r.name
		for _, kw := range r.keywords {
			out[i].patterns = append(out[i].patterns, keywordPattern(kw))
		}
	}
	return out
}

var (
	compiledDomains       = compile(domainRules)
	compiledArchitectures = compile(architectureRules)
)

// scoreDomain returns the rule with the most keyword hits; ties go to the
// earlier rule.
func scoreDomain(text string) (string, bool) {
	best, bestScore := "", 0
	for _, r := range compiledDomains {
		score := 0
		for _, p := range r.patterns {
			if p.MatchString(text) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = r.name, score
		}
	}
	return best, bestScore > 0
}

// matchArchitecture returns the first rule with any keyword hit.
func matchArchitecture(text string) (string, bool) {
	for _, r := range compiledArchitectures {
		for _, p := range r.patterns {
			if p.MatchString(text) {
				return r.name, true
			}
		}
	}
	return "", false
}
