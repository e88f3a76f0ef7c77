// Package topicdict holds the static topic→keyword expansion table
// used by the filter/dedup stage (see package filterdedup). The data
// is embedded at build time and is read-only after init.
package topicdict

import "strings"

// aliases maps a caller-supplied topic spelling onto the canonical key
// used in Keywords. Preserved verbatim from source policy.
var aliases = map[string]string{
	"technology":             "tech",
	"artificial intelligence": "ai",
	"genai":                  "ai",
}

// Exclude is the exclusion keyword list, orthogonal to any topic: an
// article matching one of these is rejected even if it also matched a
// topic keyword. Preserve the exact list; do not re-derive it.
var Exclude = []string{
	"ukraine", "russia", "war", "paint", "painter", "painting",
}

// IndianPublisherDomains is the fixed list of known Indian publisher
// domains used by the smart-location suppression rule: when the
// caller asks for location=india and the publisher is on this list
// (or its domain ends in ".in"), the location filter is skipped.
var IndianPublisherDomains = []string{
	"ndtv.com", "indianexpress.com", "timesofindia.indiatimes.com",
	"hindustantimes.com", "gadgets360.com", "economictimes.indiatimes.com",
	"analyticsindiamag.com", "indiatechnologynews.in", "devshorts.in",
	"analyticsvidhya.com", "livemint.com", "moneycontrol.com", "thehindu.com",
	"business-standard.com", "financialexpress.com", "deccanherald.com",
}

// Keywords is the static topic-name → expansion-keyword-list mapping.
// ~17 topics, 20-50 keywords each, taken verbatim from source policy.
var Keywords = map[string][]string{
	"ai": {
		"ai", "artificial intelligence", "machine learning", "deep learning",
		"neural network", "gpt", "llm", "large language model", "chatgpt",
		"claude", "gemini", "openai", "anthropic", "google ai", "ai model",
		"agent", "agentic", "generative ai", "transformer", "nlp",
		"natural language", "computer vision", "chatbot", "copilot",
		"ai assistant", "prompt engineering", "fine-tuning", "embedding",
		"video generation", "audio generation", "generative text", "speech recognition",
		"google deepmind", "nvidia", "microsoft ai", "amazon ai", "apple intelligence",
		"meta ai", "baidu", "deepseek", "mistral", "adobe firefly", "hugging face",
		"alibaba", "glm", "kimi", "sora", "runway", "midjourney", "stable diffusion",
		"diffusion model", "text to image", "text to video", "ai safety", "agi",
		"cursor", "windsurf", "replit", "github copilot", "codeium", "tabnine",
	},
	"tech": {
		"technology", "tech", "software", "hardware", "startup", "gadget",
		"smartphone", "laptop", "cloud", "cyber", "programming", "developer",
		"app", "web", "digital", "innovation", "tech industry", "tech news",
		"blockchain", "metaverse", "virtual reality", "augmented reality", "vr", "ar",
		"mobile", "tablet", "wearable", "smartwatch", "smart home", "iot",
		"internet of things", "5g", "6g", "wifi", "browser", "operating system",
		"android", "ios", "windows", "macos", "linux", "chrome", "safari",
		"data center", "server", "database", "api", "saas", "paas", "devops",
		"cybersecurity", "hacking", "malware", "ransomware", "phishing", "data breach",
		"silicon valley", "techcrunch", "product launch", "tech giant",
	},
	"cricket": {
		"cricket", "ipl", "test match", "odi", "t20", "bcci", "wicket",
		"batsman", "batter", "bowler", "innings", "stumps", "run", "six", "four",
		"cricket world cup", "cricket match", "virat kohli", "rohit sharma",
		"ms dhoni", "cricket series", "cricketer", "cricket team", "century",
		"half century", "hat trick", "lbw", "catch", "boundary", "pitch",
		"world cup", "asia cup", "border gavaskar trophy", "ashes", "icc",
		"champions trophy", "ranji trophy", "cwc", "sachin tendulkar",
	},
	"finance": {
		"finance", "stock", "market", "investment", "banking", "rupee",
		"dollar", "share", "sensex", "nifty", "portfolio", "mutual fund",
		"dividend", "ipo", "trading", "financial", "economy", "economics",
		"fiscal", "budget", "commodity", "gold", "silver", "bond", "forex",
		"rbi", "reserve bank", "interest rate", "inflation", "gdp", "recession",
		"bull market", "bear market", "nasdaq", "dow jones", "s&p", "bse", "nse",
		"hedge fund", "private equity", "venture capital", "vc funding", "fintech",
		"upi", "digital payment", "wallet", "tax", "gst", "income tax",
	},
	"sports": {
		"sports", "cricket", "football", "soccer", "tennis", "badminton",
		"hockey", "basketball", "volleyball", "athlete", "tournament",
		"championship", "medal", "olympics", "match", "game", "team",
		"player", "coach", "sport news", "premier league", "la liga",
		"bundesliga", "serie a", "nba", "nfl", "mlb", "fifa", "uefa",
		"formula 1", "f1", "grand prix", "racing", "golf", "boxing", "mma", "ufc",
		"wrestling", "swimming", "athletics", "marathon", "asian games",
		"commonwealth games", "world championship", "pro kabaddi",
	},
	"politics": {
		"politics", "election", "parliament", "government", "minister",
		"political", "policy", "vote", "democracy", "law", "bill",
		"state", "national", "congress", "bjp", "political party",
		"election commission", "lok sabha", "rajya sabha", "pm", "prime minister",
		"president", "cabinet", "opposition", "ruling party", "manifesto",
		"campaign", "rally", "constituency", "mp", "mla", "governor", "chief minister",
		"supreme court", "high court", "judiciary", "legislation", "amendment",
		"foreign policy", "diplomacy", "g20", "brics", "united nations", "nato",
	},
	"health": {
		"health", "medical", "doctor", "hospital", "disease", "vaccine",
		"covid", "pandemic", "wellness", "fitness", "nutrition", "medicine",
		"health news", "healthcare", "virus", "treatment", "patient",
		"symptom", "disease outbreak", "who", "aiims", "surgery", "diagnosis",
		"mental health", "anxiety", "depression", "therapy", "counseling",
		"diet", "exercise", "yoga", "meditation", "workout", "gym",
		"cancer", "diabetes", "heart disease", "stroke", "blood pressure",
		"ayurveda", "homeopathy", "pharma", "drug", "clinical trial",
	},
	"entertainment": {
		"entertainment", "movie", "film", "cinema", "bollywood", "hollywood",
		"actor", "actress", "celebrity", "music", "concert", "album",
		"netflix", "amazon prime", "ott", "web series", "tv show",
		"box office", "premiere", "trailer", "award", "oscar", "grammy",
		"emmy", "golden globe", "filmfare", "iifa", "director", "producer",
		"streaming", "disney", "hotstar", "sony liv", "zee5", "jio cinema",
		"tollywood", "kollywood", "south indian", "anime", "k-drama",
		"podcast", "spotify", "youtube", "influencer", "viral",
	},
	"education": {
		"education", "school", "college", "university", "student", "teacher",
		"exam", "admission", "scholarship", "degree", "course", "learning",
		"neet", "jee", "upsc", "cbse", "icse", "academic", "graduation",
		"entrance exam", "study", "curriculum", "iit", "iim", "nit", "bits",
		"gate", "cat", "gmat", "gre", "toefl", "ielts", "sat", "board exam",
		"online learning", "edtech", "byju", "unacademy", "coaching",
		"phd", "masters", "bachelor", "diploma", "skill development",
	},
	"crypto": {
		"crypto", "cryptocurrency", "bitcoin", "btc", "ethereum", "eth",
		"blockchain", "web3", "nft", "defi", "token", "wallet", "mining",
		"altcoin", "stablecoin", "usdt", "usdc", "binance", "coinbase",
		"solana", "cardano", "dogecoin", "shiba", "xrp", "ripple", "polygon",
		"smart contract", "dapp", "dao", "metaverse", "airdrop", "ico",
		"crypto exchange", "cold wallet", "hot wallet", "ledger", "trezor",
	},
	"startup": {
		"startup", "unicorn", "funding", "seed round", "series a", "series b",
		"venture capital", "vc", "angel investor", "accelerator", "incubator",
		"entrepreneur", "founder", "ceo", "cto", "pivot", "acquisition",
		"merger", "ipo", "valuation", "burn rate", "runway", "mvp",
		"product market fit", "scale up", "growth hacking", "b2b", "b2c",
		"saas", "fintech", "edtech", "healthtech", "agritech", "proptech",
		"y combinator", "techstars", "sequoia", "accel", "tiger global",
	},
	"gaming": {
		"gaming", "video game", "esports", "playstation", "xbox", "nintendo",
		"steam", "pc gaming", "mobile gaming", "pubg", "fortnite", "call of duty",
		"gta", "minecraft", "valorant", "league of legends", "dota", "csgo",
		"twitch", "streaming", "gamer", "console", "gpu", "graphics card",
		"game pass", "ps5", "switch", "vr gaming", "game developer", "indie game",
		"bgmi", "free fire", "mobile legends", "gaming tournament",
	},
	"auto": {
		"auto", "automobile", "car", "bike", "motorcycle", "electric vehicle", "ev",
		"tesla", "tata", "mahindra", "maruti", "hyundai", "toyota", "honda",
		"bmw", "mercedes", "audi", "porsche", "ferrari", "lamborghini",
		"suv", "sedan", "hatchback", "truck", "bus", "scooter", "moped",
		"petrol", "diesel", "hybrid", "charging station", "battery",
		"self driving", "autonomous", "adas", "car launch", "auto expo",
	},
	"travel": {
		"travel", "tourism", "vacation", "holiday", "flight", "airline",
		"hotel", "resort", "booking", "destination", "trip", "tour",
		"passport", "visa", "airport", "railway", "train", "cruise",
		"backpacking", "adventure", "beach", "mountain", "heritage",
		"makemytrip", "goibibo", "airbnb", "oyo", "indigo", "air india",
		"tourist", "travel guide", "itinerary", "travel ban", "travel advisory",
	},
	"weather": {
		"weather", "rain", "rainfall", "monsoon", "storm", "cyclone", "hurricane",
		"flood", "drought", "heatwave", "cold wave", "snow", "snowfall",
		"temperature", "humidity", "forecast", "imd", "meteorological",
		"climate", "climate change", "global warming", "el nino", "la nina",
		"thunderstorm", "lightning", "fog", "smog", "pollution", "aqi",
	},
	"realestate": {
		"real estate", "property", "housing", "apartment", "flat", "villa",
		"builder", "developer", "construction", "rera", "home loan",
		"mortgage", "rent", "tenant", "landlord", "lease", "commercial",
		"residential", "plot", "land", "infrastructure", "smart city",
		"affordable housing", "luxury", "township", "square feet", "carpet area",
	},
	"jobs": {
		"jobs", "job", "employment", "hiring", "recruitment", "vacancy",
		"career", "resume", "interview", "salary", "layoff", "fired",
		"fresher", "experienced", "remote work", "work from home", "hybrid",
		"linkedin", "naukri", "indeed", "glassdoor", "appraisal", "promotion",
		"internship", "placement", "campus recruitment", "job fair", "gig economy",
		"freelance", "contract", "full time", "part time", "workforce",
	},
}

// GeneralTopic disables topic filtering entirely.
const GeneralTopic = "general"

// Resolve normalizes a caller-supplied topic: lowercases it, applies
// the alias table, and reports whether it names a known topic.
// GeneralTopic resolves to ("", false) with ok=true handled by the
// caller via IsGeneral.
func Resolve(topic string) (canonical string, ok bool) {
	t := strings.ToLower(strings.TrimSpace(topic))
	if alias, found := aliases[t]; found {
		t = alias
	}
	_, ok = Keywords[t]
	return t, ok
}

// IsGeneral reports whether a (already-lowercased, alias-resolved)
// topic is the pseudo-topic that disables filtering.
func IsGeneral(topic string) bool {
	return strings.ToLower(strings.TrimSpace(topic)) == GeneralTopic
}

// ExpandKeywords returns the ordered keyword list for a canonical
// topic name, or nil if the topic is unknown.
func ExpandKeywords(canonicalTopic string) []string {
	return Keywords[canonicalTopic]
}

// IsIndianPublisher reports whether domain is a known Indian publisher
// or ends in the ".in" ccTLD.
func IsIndianPublisher(domain string) bool {
	d := strings.ToLower(domain)
	if strings.HasSuffix(d, ".in") {
		return true
	}
	for _, known := range IndianPublisherDomains {
		if strings.Contains(d, known) {
			return true
		}
	}
	return false
}
