// Package recipes finds recipes on public recipe sites and in a curated
// video list.
package recipes

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"feastfleet/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	DefaultSearchLimit  = 10
	DefaultRelatedLimit = 3

	fetchTimeout = 10 * time.Second
	// maxPageBytes caps how much of a page is read
	maxPageBytes = 5 << 20
)

var (
	ErrFetch = errors.New("failed to access recipe page")
	// ErrSiteNotAllowed is returned for a page outside the sites the scraper searches
	ErrSiteNotAllowed = errors.New("url must point to a supported recipe site")
	digits   = regexp.MustCompile(`(\d+)`)
)

// IndianSite is a recipe blog searched with "<SearchURL><query>"
type IndianSite struct {
	SearchURL string
	Domain    string
}

// Sites are the search endpoints the scraper talks to
type Sites struct {
	AllRecipes string
	Tasty      string
	TastyBase  string
	Indian     []IndianSite
}

func DefaultSites() Sites {
	return Sites{
		AllRecipes: "https://www.allrecipes.com/search?q=",
		Tasty:      "https://tasty.co/search?q=",
		TastyBase:  "https://tasty.co",
		Indian: []IndianSite{
			{SearchURL: "https://www.vegrecipesofindia.com/?s=", Domain: "vegrecipesofindia.com"},
			{SearchURL: "https://hebbarskitchen.com/?s=", Domain: "hebbarskitchen.com"},
			{SearchURL: "https://www.indianhealthyrecipes.com/?s=", Domain: "indianhealthyrecipes.com"},
			{SearchURL: "https://www.cookwithmanali.com/?s=", Domain: "cookwithmanali.com"},
		},
	}
}

var indianTerms = []string{"indian", "curry", "masala", "paneer", "tikka", "biryani",
	"dosa", "chutney", "samosa", "naan", "roti", "chapati",
	"dal", "paratha", "korma", "tandoori", "idli", "sambar",
	"raita", "halwa", "ladoo", "barfi", "kheer"}

func isIndianQuery(q string, terms []string) bool {
	q = strings.ToLower(q)
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// hosts lists the host names behind the configured sites, without "www."
func (s Sites) hosts() []string {
	raw := []string{s.AllRecipes, s.Tasty, s.TastyBase}
	for _, site := range s.Indian {
		raw = append(raw, site.SearchURL, "https://"+site.Domain)
	}
	var out []string
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil || u.Hostname() == "" {
			continue
		}
		out = append(out, strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."))
	}
	return out
}

type Scraper struct {
	client *http.Client
	sites  Sites
	hosts  []string
	log    logrus.FieldLogger
}

// NewScraper reads pages with a copy of client that refuses redirects
// leading off the configured sites.
func NewScraper(client *http.Client, sites Sites, log logrus.FieldLogger) *Scraper {
	c := http.Client{Timeout: fetchTimeout}
	if client != nil {
		c = *client
	}
	s := &Scraper{sites: sites, hosts: sites.hosts(), log: log}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if !s.Allowed(req.URL.String()) {
			return errors.Wrapf(ErrSiteNotAllowed, "redirect to %s", req.URL.Host)
		}
		return nil
	}
	s.client = &c
	return s
}

// Allowed reports whether pageURL is an http(s) address on one of the
// configured sites or their subdomains.
func (s *Scraper) Allowed(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range s.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (s *Scraper) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", target)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching %s: status %d", target, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", target)
	}
	return doc, nil
}

// Search returns up to limit recipes matching query, most popular first.
// Indian dishes are looked up on Indian blogs before AllRecipes; Tasty tops
// up the list when it is still short. A site that fails is skipped.
func (s *Scraper) Search(ctx context.Context, query string, limit int) []models.RecipeSummary {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := url.QueryEscape(query)
	recipes := []models.RecipeSummary{}

	if isIndianQuery(query, indianTerms) {
		for _, site := range s.sites.Indian {
			if len(recipes) >= limit {
				break
			}
			found, err := s.searchIndianSite(ctx, site, q, limit-len(recipes))
			if err != nil {
				s.log.WithError(err).WithField("site", site.Domain).Debug("recipe site skipped")
				continue
			}
			recipes = append(recipes, found...)
		}
	}

	if found, err := s.searchAllRecipes(ctx, q, limit); err != nil {
		s.log.WithError(err).Debug("allrecipes search skipped")
	} else {
		recipes = append(recipes, found...)
	}

	if len(recipes) < limit {
		if found, err := s.searchTasty(ctx, q, limit-len(recipes)); err != nil {
			s.log.WithError(err).Debug("tasty search skipped")
		} else {
			recipes = append(recipes, found...)
		}
	}

	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].PopularityScore > recipes[j].PopularityScore
	})
	if len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes
}

func classContains(sel *goquery.Selection, terms ...string) bool {
	class, ok := sel.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(class) {
		for _, t := range terms {
			if strings.Contains(c, t) {
				return true
			}
		}
	}
	return false
}

// searchIndianSite reads blog search results. Blogs carry no ratings, so
// every hit is shown as 4.5 stars with a made-up like count.
func (s *Scraper) searchIndianSite(ctx context.Context, site IndianSite, q string, max int) ([]models.RecipeSummary, error) {
	doc, err := s.fetch(ctx, site.SearchURL+q)
	if err != nil {
		return nil, err
	}
	elements := doc.Find("article, div").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return classContains(sel, "post", "recipe", "article", "entry")
	})

	out := []models.RecipeSummary{}
	seen := map[string]bool{}
	elements.EachWithBreak(func(i int, el *goquery.Selection) bool {
		if i >= max {
			return false
		}
		title := el.Find("h2, h3, h4, a").FilterFunction(func(_ int, sel *goquery.Selection) bool {
			return classContains(sel, "title", "heading")
		}).First()
		if title.Length() == 0 {
			title = el.Find("h2, h3, h4").First()
		}
		if title.Length() == 0 {
			title = el.Find("a[href]").First()
		}
		if title.Length() == 0 {
			return true
		}

		var href string
		if goquery.NodeName(title) == "a" {
			href, _ = title.Attr("href")
		} else {
			link := title.Find("a[href]").First()
			if link.Length() == 0 {
				link = el.Find("a[href]").First()
			}
			href, _ = link.Attr("href")
		}
		if href == "" {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = "https://" + site.Domain + href
		}
		if seen[href] {
			return true
		}
		seen[href] = true

		r := models.RecipeSummary{
			Name:   strings.TrimSpace(title.Text()),
			URL:    href,
			Rating: "4.5",
			Likes:  strconv.Itoa(50 + rand.IntN(451)),
			Source: site.Domain,
		}
		if img := el.Find("img").First(); img.Length() > 0 {
			r.Image = img.AttrOr("src", img.AttrOr("data-src", ""))
		}
		out = append(out, r)
		return true
	})
	return out, nil
}

func (s *Scraper) searchAllRecipes(ctx context.Context, q string, max int) ([]models.RecipeSummary, error) {
	doc, err := s.fetch(ctx, s.sites.AllRecipes+q)
	if err != nil {
		return nil, err
	}
	out := []models.RecipeSummary{}
	doc.Find("div.component.card.card__recipe").EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= max {
			return false
		}
		link := card.Find("h3.card__title a").First()
		if link.Length() == 0 {
			return true
		}
		r := models.RecipeSummary{
			Name:   strings.TrimSpace(link.Text()),
			URL:    link.AttrOr("href", ""),
			Source: "allrecipes.com",
		}
		r.Rating, r.Reviews = readRatings(card)
		if src, ok := card.Find("img").First().Attr("src"); ok && src != "" {
			r.Image = src
		}
		rating, _ := strconv.ParseFloat(r.Rating, 64)
		reviews, _ := strconv.Atoi(r.Reviews)
		r.PopularityScore = rating * (1 + math.Min(float64(reviews)/100, 10))
		out = append(out, r)
		return true
	})
	return out, nil
}

// readRatings reads AllRecipes' star rating and review count under sel
func readRatings(sel *goquery.Selection) (stars, reviews string) {
	block := sel.Find("div.recipe-ratings").First()
	if block.Length() == 0 {
		return "", ""
	}
	if st := block.Find("span.stars").First(); st.Length() > 0 {
		stars = st.AttrOr("data-rating", "0")
	}
	if m := digits.FindString(block.Find("span.ratings-count").First().Text()); m != "" {
		reviews = m
	}
	return stars, reviews
}

func (s *Scraper) searchTasty(ctx context.Context, q string, max int) ([]models.RecipeSummary, error) {
	doc, err := s.fetch(ctx, s.sites.Tasty+q)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(s.sites.TastyBase)
	out := []models.RecipeSummary{}
	doc.Find("a.feed-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= max {
			return false
		}
		title := item.Find("div.item-title").First()
		if title.Length() == 0 {
			return true
		}
		r := models.RecipeSummary{
			Name:   strings.TrimSpace(title.Text()),
			URL:    resolve(base, item.AttrOr("href", "")),
			Source: "tasty.co",
		}
		if m := digits.FindString(item.Find("div.likes").First().Text()); m != "" {
			r.Likes = m
			likes, _ := strconv.Atoi(m)
			r.PopularityScore = float64(likes) / 100
		}
		if src, ok := item.Find("img").First().Attr("src"); ok && src != "" {
			r.Image = src
		}
		out = append(out, r)
		return true
	})
	return out, nil
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Details scrapes a single recipe page. AllRecipes pages are read through
// their markup; anything missing afterwards is recovered from the page text.
func (s *Scraper) Details(ctx context.Context, pageURL string) (models.RecipeDetails, error) {
	if !s.Allowed(pageURL) {
		return models.RecipeDetails{}, ErrSiteNotAllowed
	}
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.log.WithError(err).WithField("url", pageURL).Warn("recipe details unavailable")
		return models.RecipeDetails{}, errors.Wrap(ErrFetch, err.Error())
	}
	return parseDetails(doc, pageURL), nil
}

func parseDetails(doc *goquery.Document, pageURL string) models.RecipeDetails {
	d := models.RecipeDetails{
		URL:          pageURL,
		Ingredients:  []string{},
		Instructions: []string{},
	}
	d.Name = strings.TrimSpace(doc.Find("h1").First().Text())

	if strings.Contains(pageURL, "allrecipes.com") {
		d.Ingredients = texts(doc.Find("li.ingredients-item"))
		d.Instructions = texts(doc.Find("div.paragraph"))
		d.Ratings.Stars, d.Ratings.Reviews = readRatings(doc.Selection)
		d.CookingTime = strings.TrimSpace(doc.Find("div.recipe-meta-item-body").First().Text())
	}

	if len(d.Ingredients) == 0 || len(d.Instructions) == 0 {
		parts := ExtractParts(PageText(doc))
		if len(d.Ingredients) == 0 {
			d.Ingredients = parts.Ingredients
		}
		if len(d.Instructions) == 0 {
			d.Instructions = parts.Instructions
		}
		if d.CookingTime == "" {
			d.CookingTime = parts.CookTime
		}
	}
	return d
}

func texts(sel *goquery.Selection) []string {
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// PageText is the readable text of a page, one trimmed line per text run,
// without scripts, styles and page chrome.
func PageText(doc *goquery.Document) string {
	body := doc.Selection.Clone()
	body.Find("script, style, nav, footer, header, aside").Remove()
	var lines []string
	collectText(body, &lines)
	return strings.Join(lines, "\n")
}

func collectText(sel *goquery.Selection, lines *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			for _, l := range strings.Split(c.Text(), "\n") {
				if l = strings.TrimSpace(l); l != "" {
					*lines = append(*lines, l)
				}
			}
			return
		}
		collectText(c, lines)
	})
}
