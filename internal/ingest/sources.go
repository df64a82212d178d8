package ingest

// Outlet is one RSS feed we poll. Selectors lists CSS paths tried in order
// when the feed item carries no usable body and we fall back to fetching
// the article page.
type Outlet struct {
	Name      string
	FeedURL   string
	Selectors []string
}

// Outlets are the Australian news feeds polled on each scrape run.
func Outlets() []Outlet {
	return []Outlet{
		{
			Name:      "abc_news",
			FeedURL:   "https://www.abc.net.au/news/feed/51120/rss.xml",
			Selectors: []string{"div[data-component='ArticleBody']", "article"},
		},
		{
			Name:      "news_com_au",
			FeedURL:   "https://www.news.com.au/content-feeds/latest-news-national/",
			Selectors: []string{"#story-primary", ".story-content", "article"},
		},
		{
			Name:      "smh",
			FeedURL:   "https://www.smh.com.au/rss/feed.xml",
			Selectors: []string{"div[data-testid='article-body']", "article"},
		},
		{
			Name:      "the_age",
			FeedURL:   "https://www.theage.com.au/rss/feed.xml",
			Selectors: []string{"div[data-testid='article-body']", "article"},
		},
		{
			Name:      "sbs_news",
			FeedURL:   "https://www.sbs.com.au/news/topic/latest/feed",
			Selectors: []string{"div[data-testid='article-body']", "article"},
		},
		{
			Name:      "nine_news",
			FeedURL:   "https://www.9news.com.au/rss",
			Selectors: []string{".article__body-croppable", "article"},
		},
		{
			Name:      "seven_news",
			FeedURL:   "https://7news.com.au/rss",
			Selectors: []string{"#ArticleContent", "article"},
		},
		{
			Name:      "brisbane_times",
			FeedURL:   "https://www.brisbanetimes.com.au/rss/feed.xml",
			Selectors: []string{"div[data-testid='article-body']", "article"},
		},
		{
			Name:      "watoday",
			FeedURL:   "https://www.watoday.com.au/rss/feed.xml",
			Selectors: []string{"div[data-testid='article-body']", "article"},
		},
		{
			Name:      "canberra_times",
			FeedURL:   "https://www.canberratimes.com.au/rss.xml",
			Selectors: []string{"#story-body", ".story-body", "article"},
		},
	}
}
