package recipes

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"feastfleet/models"
)

// DefaultMaxVideos is how many videos a search returns when the caller does not say
const DefaultMaxVideos = 3

var cuisineVideos = map[string][]models.Video{
	"indian": {
		{Title: "Butter Chicken Recipe | Restaurant Style Recipe", VideoID: "a03U45jFxOI", Channel: "Chef Ranveer Brar", Duration: "10:15", Views: "2.4M"},
		{Title: "Paneer Tikka Masala Recipe | How to Make Paneer Tikka Masala", VideoID: "SIwRB-M3A_c", Channel: "Kunal Kapur", Duration: "8:45", Views: "1.7M"},
		{Title: "Dal Makhani Recipe | Authentic Punjabi Style", VideoID: "uCJIy7WQeeM", Channel: "Kabita's Kitchen", Duration: "7:32", Views: "3.2M"},
	},
	"italian": {
		{Title: "Authentic Italian Pasta Carbonara", VideoID: "3AAdKl1UYZw", Channel: "Vincenzo's Plate", Duration: "12:08", Views: "4.1M"},
		{Title: "Perfect Homemade Pizza Dough Recipe", VideoID: "G-jPoROGHGE", Channel: "Joshua Weissman", Duration: "15:22", Views: "5.3M"},
		{Title: "Classic Tiramisu Recipe - Italian Dessert", VideoID: "7VTtodyKZKY", Channel: "Food Wishes", Duration: "9:47", Views: "2.8M"},
	},
	"chinese": {
		{Title: "Perfect Fried Rice Recipe - Better than Takeout", VideoID: "qH__o17xHls", Channel: "Chinese Cooking Demystified", Duration: "11:36", Views: "3.6M"},
		{Title: "Kung Pao Chicken - Authentic Sichuan Style", VideoID: "QqdcCHQlOe0", Channel: "Made With Lau", Duration: "14:05", Views: "1.8M"},
		{Title: "Homemade Dim Sum - Chinese Dumplings Recipe", VideoID: "44QjXEC0-j8", Channel: "Souped Up Recipes", Duration: "13:28", Views: "2.1M"},
	},
	"mexican": {
		{Title: "Authentic Mexican Street Tacos Recipe", VideoID: "j5xIrBpxVYw", Channel: "Views on the Road", Duration: "8:52", Views: "4.7M"},
		{Title: "Homemade Guacamole - Mexican Avocado Dip", VideoID: "7KzuUfB8ujA", Channel: "Rick Bayless", Duration: "6:18", Views: "1.5M"},
		{Title: "Easy Chicken Enchiladas - Mexican Comfort Food", VideoID: "VIKgZ3MUp6o", Channel: "Sam the Cooking Guy", Duration: "10:23", Views: "2.2M"},
	},
	"general": {
		{Title: "5 Chicken Recipes for the Whole Family", VideoID: "yKBX1PohtYM", Channel: "Gordon Ramsay", Duration: "15:45", Views: "8.3M"},
		{Title: "Best Vegetarian Recipes for Beginners", VideoID: "F6A0x1hqQw8", Channel: "Jamie Oliver", Duration: "14:12", Views: "3.9M"},
		{Title: "Quick & Easy 15-Minute Dinner Ideas", VideoID: "pHJ0YVrS8cM", Channel: "Pro Home Cooks", Duration: "12:37", Views: "2.5M"},
		{Title: "One-Pot Meals for Busy Weeknights", VideoID: "8jJZA5VZwn4", Channel: "Babish Culinary Universe", Duration: "16:21", Views: "4.2M"},
		{Title: "Healthy Breakfast Recipes to Start Your Day", VideoID: "qB8efz1E3OQ", Channel: "Pick Up Limes", Duration: "11:08", Views: "6.7M"},
	},
}

var ingredientVideos = map[string][]models.Video{
	"chicken": {
		{Title: "5 Easy Chicken Recipes Anyone Can Make", VideoID: "yNhshkG6IYM", Channel: "Tasty", Duration: "12:45", Views: "5.3M"},
		{Title: "Perfect Roast Chicken Recipe", VideoID: "QMbXFj4GxJU", Channel: "Food Wishes", Duration: "9:23", Views: "3.2M"},
	},
	"pasta": {
		{Title: "5 Pasta Recipes That Are Easy & Delicious", VideoID: "ARvVIT3aNgQ", Channel: "Joshua Weissman", Duration: "15:32", Views: "4.1M"},
		{Title: "The Only Pasta Recipe You'll Ever Need", VideoID: "IV5IDaT9HOw", Channel: "Ethan Chlebowski", Duration: "10:15", Views: "2.7M"},
	},
	"rice": {
		{Title: "How to Cook Perfect Rice Every Time", VideoID: "JOOSBoI1zqo", Channel: "Adam Ragusea", Duration: "8:37", Views: "3.5M"},
		{Title: "10 Amazing Rice Dishes from Around the World", VideoID: "5NvFk9kZcUc", Channel: "Bon Appétit", Duration: "14:21", Views: "2.9M"},
	},
	"potato": {
		{Title: "The Best Mashed Potatoes You'll Ever Make", VideoID: "HEXWRTEbj1I", Channel: "J. Kenji López-Alt", Duration: "11:18", Views: "4.3M"},
		{Title: "5 Ways to Cook Potatoes - Better Than Fries", VideoID: "BoD16LMxf4Y", Channel: "Babish Culinary Universe", Duration: "13:42", Views: "5.1M"},
	},
}

// checked in this order; the first cuisine found in the query wins
var (
	videoCuisines    = []string{"indian", "italian", "chinese", "mexican"}
	videoIngredients = []string{"chicken", "pasta", "rice", "potato", "beef", "fish", "vegetable"}
)

// SearchVideos picks up to max curated videos for query: the matching
// cuisine first, then every matching ingredient, topped up from the general
// list. The result is shuffled. No network is involved.
func SearchVideos(query string, max int) []models.Video {
	if max <= 0 {
		max = DefaultMaxVideos
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var candidates []models.Video
	for _, c := range videoCuisines {
		if strings.Contains(q, c) {
			candidates = append(candidates, cuisineVideos[c]...)
			break
		}
	}
	for _, ing := range videoIngredients {
		if strings.Contains(q, ing) {
			candidates = append(candidates, ingredientVideos[ing]...)
		}
	}
	if len(candidates) < max {
		candidates = append(candidates, cuisineVideos["general"]...)
	}

	out := make([]models.Video, 0, max)
	seen := map[string]bool{}
	for _, v := range candidates {
		if seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		v.URL = "https://www.youtube.com/watch?v=" + v.VideoID
		v.Thumbnail = "https://img.youtube.com/vi/" + v.VideoID + "/mqdefault.jpg"
		v.EmbedURL, _ = EmbedURL(v.URL)
		out = append(out, v)
		if len(out) >= max {
			break
		}
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/v/([\w-]+)`),
}

// ExtractVideoID returns the id in a YouTube watch, short, embed or old
// embed URL, and false for anything else.
func ExtractVideoID(url string) (string, bool) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// EmbedURL turns any YouTube link ExtractVideoID understands into the
// player URL for an iframe.
func EmbedURL(url string) (string, bool) {
	id, ok := ExtractVideoID(url)
	if !ok {
		return "", false
	}
	return "https://www.youtube.com/embed/" + id, true
}
