package recipes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allRecipesPage = `<html><body>
<div class="component card card__recipe">
  <h3 class="card__title"><a href="https://www.allrecipes.com/recipe/1/butter-paneer">Butter Paneer</a></h3>
  <div class="recipe-ratings"><span class="stars" data-rating="4.5"></span><span class="ratings-count">250 Ratings</span></div>
  <img src="https://img.example/bp.jpg">
</div>
<div class="component card card__recipe">
  <h3 class="card__title"><a href="https://www.allrecipes.com/recipe/2/paneer-tikka">Paneer Tikka</a></h3>
  <div class="recipe-ratings"><span class="stars" data-rating="4.0"></span><span class="ratings-count">2000 Ratings</span></div>
</div>
<div class="component card card__recipe"><h3 class="card__title">No link</h3></div>
</body></html>`

const tastyPage = `<html><body>
<a class="feed-item" href="/recipe/paneer-wrap"><div class="item-title">Paneer Wrap</div><div class="likes">1200 likes</div><img src="https://img.example/wrap.jpg"></a>
</body></html>`

const blogPage = `<html><body>
<article class="post type-post">
  <h2 class="entry-title"><a href="/palak-paneer/">Palak Paneer</a></h2>
  <img data-src="https://img.example/pp.jpg">
</article>
<article class="post">
  <h3>Paneer Butter Masala</h3>
  <a href="https://blog.example/pbm/">Read more</a>
</article>
</body></html>`

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestScraper(t *testing.T) (*Scraper, *[]string) {
	t.Helper()
	var (
		mu     sync.Mutex
		agents []string
	)
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			agents = append(agents, r.UserAgent())
			mu.Unlock()
			io.WriteString(w, body)
		}
	}
	mux.HandleFunc("/allrecipes", serve(allRecipesPage))
	mux.HandleFunc("/tasty", serve(tastyPage))
	mux.HandleFunc("/blog/", serve(blogPage))
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sites := Sites{
		AllRecipes: srv.URL + "/allrecipes?q=",
		Tasty:      srv.URL + "/tasty?q=",
		TastyBase:  "https://tasty.co",
		Indian: []IndianSite{
			{SearchURL: srv.URL + "/broken/?s=", Domain: "broken.example"},
			{SearchURL: srv.URL + "/blog/?s=", Domain: "blog.example"},
		},
	}
	return NewScraper(srv.Client(), sites, quietLogger()), &agents
}

func TestSearchIndianQuery(t *testing.T) {
	s, agents := newTestScraper(t)
	got := s.Search(context.Background(), "paneer tikka", 10)

	require.Len(t, got, 5)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Paneer Tikka", "Butter Paneer", "Paneer Wrap", "Palak Paneer", "Paneer Butter Masala"}, names)

	assert.InDelta(t, 44.0, got[0].PopularityScore, 1e-9)
	assert.InDelta(t, 15.75, got[1].PopularityScore, 1e-9)
	assert.Equal(t, "250", got[1].Reviews)
	assert.Equal(t, "https://img.example/bp.jpg", got[1].Image)

	assert.Equal(t, "https://tasty.co/recipe/paneer-wrap", got[2].URL)
	assert.Equal(t, "1200", got[2].Likes)
	assert.InDelta(t, 12.0, got[2].PopularityScore, 1e-9)

	palak := got[3]
	assert.Equal(t, "https://blog.example/palak-paneer/", palak.URL)
	assert.Equal(t, "4.5", palak.Rating)
	assert.Equal(t, "blog.example", palak.Source)
	assert.Equal(t, "https://img.example/pp.jpg", palak.Image)
	assert.NotEmpty(t, palak.Likes)
	assert.Equal(t, "https://blog.example/pbm/", got[4].URL)

	for _, ua := range *agents {
		assert.Equal(t, UserAgent, ua)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	s, _ := newTestScraper(t)
	got := s.Search(context.Background(), "pasta", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Butter Paneer", got[0].Name)
}

func TestSearchAllSitesDown(t *testing.T) {
	s := NewScraper(nil, Sites{AllRecipes: "http://127.0.0.1:1/?q=", Tasty: "http://127.0.0.1:1/?q="}, quietLogger())
	assert.Empty(t, s.Search(context.Background(), "soup", 5))
}

func TestDetailsFallsBackToPageText(t *testing.T) {
	page := `<html><head><script>var x = 1;</script></head><body>
<header>Site Nav</header>
<h1>Simple Dal</h1>
<div>
  <h2>Ingredients</h2>
  <ul><li>1 cup toor dal</li><li>2 cups water</li><li>1 tsp salt</li></ul>
  <h2>Instructions</h2>
  <ol><li>1. Rinse the dal</li><li>2. Pressure boil with water</li><li>3. Add salt</li></ol>
  <p>Cook Time: 20 minutes</p>
</div>
<footer>Copyright</footer>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, page)
	}))
	defer srv.Close()

	s := NewScraper(srv.Client(), Sites{AllRecipes: srv.URL + "/search?q="}, quietLogger())
	d, err := s.Details(context.Background(), srv.URL+"/dal")
	require.NoError(t, err)
	assert.Equal(t, "Simple Dal", d.Name)
	assert.Equal(t, []string{"1 cup toor dal", "2 cups water", "1 tsp salt"}, d.Ingredients)
	assert.Equal(t, []string{"Rinse the dal", "Pressure boil with water", "Add salt"}, d.Instructions)
	assert.Equal(t, "20 minutes", d.CookingTime)
}

func TestDetailsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	s := NewScraper(srv.Client(), Sites{AllRecipes: srv.URL + "/search?q="}, quietLogger())
	_, err := s.Details(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestAllowed(t *testing.T) {
	s := NewScraper(nil, DefaultSites(), quietLogger())
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.allrecipes.com/recipe/23600/worlds-best-lasagna/", true},
		{"https://allrecipes.com/recipe/1", true},
		{"https://tasty.co/recipe/paneer-wrap", true},
		{"https://hebbarskitchen.com/palak-paneer/", true},
		{"https://www.vegrecipesofindia.com/dal/", true},
		{"http://127.0.0.1/admin", false},
		{"http://169.254.169.254/latest/meta-data", false},
		{"http://localhost:8080/health", false},
		{"https://allrecipes.com.evil.example/x", false},
		{"https://notallrecipes.com/x", false},
		{"ftp://www.allrecipes.com/x", false},
		{"/recipe/relative", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Allowed(tt.url), tt.url)
	}
}

func TestDetailsRefusesOtherHosts(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	s := NewScraper(srv.Client(), DefaultSites(), quietLogger())
	_, err := s.Details(context.Background(), srv.URL+"/latest/meta-data")
	assert.ErrorIs(t, err, ErrSiteNotAllowed)
	assert.False(t, hit)
}

func TestDetailsRefusesRedirectOffSite(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><h1>secret</h1></html>")
	}))
	defer internal.Close()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, strings.Replace(internal.URL, "127.0.0.1", "localhost", 1)+"/x", http.StatusFound)
	}))
	defer site.Close()

	s := NewScraper(site.Client(), Sites{AllRecipes: site.URL + "/search?q="}, quietLogger())
	_, err := s.Details(context.Background(), site.URL+"/recipe/1")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestDetailsStopsReadingLargePages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body><!--")
		chunk := strings.Repeat("a", 1<<20)
		for i := 0; i < 6; i++ {
			io.WriteString(w, chunk)
		}
		io.WriteString(w, "--><h1>Past The Limit</h1></body></html>")
	}))
	defer srv.Close()

	s := NewScraper(srv.Client(), Sites{AllRecipes: srv.URL + "/search?q="}, quietLogger())
	d, err := s.Details(context.Background(), srv.URL+"/soup")
	require.NoError(t, err)
	assert.Empty(t, d.Name)
}

func TestParseAllRecipesDetails(t *testing.T) {
	page := `<html><body>
<h1>World's Best Lasagna</h1>
<div class="recipe-ratings"><span class="stars" data-rating="4.8"></span><span class="ratings-count">19000 Ratings</span></div>
<ul><li class="ingredients-item">1 pound sweet Italian sausage</li><li class="ingredients-item"> </li><li class="ingredients-item">3/4 pound lean ground beef</li></ul>
<div class="paragraph">Brown sausage and beef.</div><div class="paragraph">Bake 25 minutes.</div>
<div class="recipe-meta-item-body">3 hrs 15 mins</div>
</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	d := parseDetails(doc, "https://www.allrecipes.com/recipe/23600/worlds-best-lasagna/")
	assert.Equal(t, "World's Best Lasagna", d.Name)
	assert.Equal(t, []string{"1 pound sweet Italian sausage", "3/4 pound lean ground beef"}, d.Ingredients)
	assert.Equal(t, []string{"Brown sausage and beef.", "Bake 25 minutes."}, d.Instructions)
	assert.Equal(t, "4.8", d.Ratings.Stars)
	assert.Equal(t, "19000", d.Ratings.Reviews)
	assert.Equal(t, "3 hrs 15 mins", d.CookingTime)
}

func TestRelatedQueries(t *testing.T) {
	assert.ElementsMatch(t, popularIndian, RelatedQueries("paneer tikka recipe"))

	got := RelatedQueries("chicken")
	assert.Len(t, got, 9)
	assert.Contains(t, got, "grilled chicken")
	assert.Contains(t, got, "chicken casserole")

	got = RelatedQueries("Chicken Masala")
	assert.Contains(t, got, "chicken korma")
	assert.Contains(t, got, "tandoori chicken")

	got = RelatedQueries("spicy lentil soup bowl")
	assert.ElementsMatch(t, []string{
		"Italian spicy lentil soup bowl", "Mexican spicy lentil soup bowl", "Indian spicy lentil soup bowl",
		"Thai spicy lentil soup bowl", "Mediterranean spicy lentil soup bowl",
	}, got)
}

func TestRelatedDeduplicatesByName(t *testing.T) {
	s, _ := newTestScraper(t)
	got := s.Related(context.Background(), "chicken", 3)
	// every derived query returns the same top card
	require.Len(t, got, 1)
	assert.Equal(t, "Butter Paneer", got[0].Name)
}
