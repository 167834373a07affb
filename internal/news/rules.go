package news

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSet is the data-driven configuration of the pattern classifier.
// Pattern entries are regular expressions matched case-insensitively;
// source entries are substrings matched against the lowercased source id.
type RuleSet struct {
	BlockedSources  []string       `yaml:"blocked_sources"`
	TrustedEntities []string       `yaml:"trusted_entities"`
	Tier1Sources    []string       `yaml:"tier1_sources"`
	Tier2Sources    []string       `yaml:"tier2_sources"`
	Irrelevant      []string       `yaml:"irrelevant_patterns"`
	Relevance       []string       `yaml:"relevance_patterns"`
	Fallback        FallbackRule   `yaml:"fallback"`
	Categories      []CategoryRule `yaml:"categories"`
	Importance      []string       `yaml:"importance_patterns"`
}

// FallbackRule accepts an article when the text contains a word starting with
// one of each token group.
type FallbackRule struct {
	Primary      []string `yaml:"primary"`
	Counterparty []string `yaml:"counterparty"`
	Vocabulary   []string `yaml:"vocabulary"`
}

// CategoryRule assigns Category when any pattern matches. Rules are evaluated
// in order and the first match wins.
type CategoryRule struct {
	Category Category `yaml:"category"`
	Patterns []string `yaml:"patterns"`
}

// LoadRules reads a YAML rules file. Keys absent from the file keep their
// default values.
func LoadRules(path string) (RuleSet, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return rules, nil
}

// DefaultRules returns the built-in rule set for the Netflix / Warner Bros.
// Discovery transaction.
func DefaultRules() RuleSet {
	return RuleSet{
		BlockedSources: []string{
			"wikipedia", "reddit", "twitter", "x.com", "facebook",
			"tiktok", "pinterest", "quora",
		},
		TrustedEntities: []string{"netflix", "warnerbros", "wbd", "paramount"},
		Tier1Sources: []string{
			"reuters", "bloomberg", "wsj", "apnews", "nytimes", "washingtonpost",
			"variety", "deadline", "hollywoodreporter", "cnbc", "cnn", "bbc",
			"latimes", "usatoday", "nypost", "foxbusiness", "nbcnews", "abcnews", "cbsnews",
			"globeandmail", "cbc", "nationalpost", "financialpost", "bnnbloomberg", "globalnews", "ctv",
			"prnewswire", "businesswire", "sec", "doj", "ftc", "justice",
			"europa", "ec.europa", "competitionbureau", "cma", "gov.uk",
		},
		Tier2Sources: []string{
			"seekingalpha", "benzinga", "thestreet", "marketwatch", "barrons",
			"techcrunch", "theverge", "engadget", "fastcompany", "forbes", "insider",
			"guardian", "independent", "telegraph", "euronews",
			"indiewire", "screendaily", "vulture", "rollingstone", "avclub",
			"cision", "gamespot", "ign", "insidermonkey", "moneycontrol",
		},
		Irrelevant: []string{
			`stranger things`, `harry potter`, `marvel movie`, `dc universe`, `dceu`,
			`premiere`, `trailer release`, `casting news`,
			`james gunn`, `zack snyder`, `chris nolan`,
			`best movies of`, `best shows of`, `most anticipated`, `\branking\b`, `\branked\b`,
			`lgbtq`, `coming to netflix`, `leaving netflix`, `what to watch`, `\bbinge\b`, `review:`,
			`demogorgon`, `upside down`, `top gun`, `speed racer`, `purple rain`, `babylon 5`,
			`dstv`, `canal\+`, `multichoice`, `social media ban`,
			`bundling deal`, `bundle deal`, `distribution deal`, `licensing deal`,
			`rtl\+`, `signs deal with`, `streaming bundle`,
			`grammy`, `emmy`, `oscar`, `golden globe`, `game of thrones`, `house of the dragon`,
		},
		Relevance: []string{
			`netflix.{0,30}(acquire|acqui|buy|bid|offer|merge|deal).{0,30}(warner|wbd|discovery)`,
			`(warner|wbd|discovery).{0,30}(acquire|acqui|buy|bid|offer|merge|deal).{0,30}netflix`,
			`netflix.{0,50}warner`,
			`warner.{0,50}netflix`,
			`wbd.{0,30}netflix`,
			`netflix.{0,30}wbd`,
			`paramount.{0,30}(warner|wbd).{0,30}(bid|offer|hostile|tender)`,
			`(warner|wbd).{0,30}paramount.{0,30}(bid|offer|hostile|tender)`,
			`skydance.{0,30}(warner|wbd)`,
			`ellison.{0,30}(warner|wbd)`,
			`netflix.{0,50}zaslav`,
			`zaslav.{0,30}(netflix|merger|deal|acquisition)`,
			`sarandos.{0,30}(warner|wbd|acquisition|merger)`,
			`netflix.{0,50}sarandos.{0,30}warner`,
			`netflix buys wbd`,
			`netflix buys warner`,
			`netflix acquires warner`,
			`netflix acquires wbd`,
			`paramount.{0,50}(hostile|tender|takeover).{0,30}(warner|wbd)`,
			`skydance.{0,50}(bid|offer).{0,30}(warner|wbd)`,
			`ellison.{0,30}(warner|wbd|bid|offer)`,
			`(ftc|doj|antitrust).{0,50}(netflix.{0,30}warner|warner.{0,30}netflix)`,
			`(european commission|ec).{0,30}(netflix|warner).{0,30}(merger|review)`,
			`(cma|competition).{0,30}(netflix|warner).{0,30}(review|merger)`,
			`(competition bureau|canada).{0,30}(netflix|warner)`,
			`hsr.{0,20}(netflix|warner)`,
			`\$82.{0,20}billion`,
			`\$83.{0,20}billion`,
			`\$108.{0,20}billion`,
			`\$30.{0,10}(per share|share)`,
			`tender offer.{0,30}(warner|wbd|paramount)`,
			`bidding war.{0,30}(warner|wbd)`,
			`hostile.{0,30}(bid|takeover).{0,30}(warner|wbd)`,
			`(hbo|hbo max).{0,30}(netflix.{0,20}acquisition|sold to netflix)`,
			`max streaming.{0,30}(netflix|acquisition|merger)`,
		},
		Fallback: FallbackRule{
			Primary:      []string{"netflix"},
			Counterparty: []string{"warner", "wbd", "discovery"},
			Vocabulary: []string{
				"acqui", "merge", "deal", "bid", "buy", "offer", "takeover",
			},
		},
		Categories: []CategoryRule{
			{
				Category: CategoryRegulatory,
				Patterns: []string{
					`(doj|department of justice|antitrust)`,
					`(ftc|federal trade commission)`,
					`(european commission|ec approval|eu regulator)`,
					`(cma|competition.{0,10}markets)`,
					`(competition bureau|canada regulator)`,
					`(hsr|hart-scott-rodino)`,
					`regulatory (review|approval|hurdle|scrutiny)`,
					`antitrust (review|concern|issue|scrutiny)`,
					`merger (review|approval|blocked)`,
				},
			},
			{
				Category: CategoryBids,
				Patterns: []string{
					`(\$82|\$83|\$85).{0,5}billion`,
					`(\$108|\$110).{0,5}billion`,
					`\$30.{0,5}(per share|/share)`,
					`tender offer`,
					`hostile (bid|takeover)`,
					`poison pill`,
					`shareholder (vote|approval|meeting)`,
					`board (reject|accept|consider)`,
				},
			},
			{
				Category: CategoryAnalysis,
				Patterns: []string{`(analyst|opinion|outlook|prediction|expect|forecast)`},
			},
		},
		Importance: []string{
			`tender offer`,
			`hostile (bid|takeover)`,
			`board (reject|accept)`,
			`shareholder vote`,
			`(doj|ftc).{0,20}(block|sue|approve|clear)`,
			`regulatory.{0,20}(approve|block|clear)`,
			`deal.{0,20}(close|complete|terminate|collapse)`,
			`\$\d+.{0,5}billion.{0,20}(offer|bid)`,
		},
	}
}
