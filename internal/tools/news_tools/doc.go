// Package news_tools provides news_headlines (NewsAPI) and google_news
// (Google News RSS).
package news_tools
