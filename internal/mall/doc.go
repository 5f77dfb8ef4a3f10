// Package mall provides an HTTP client for the storefront's mall API.
//
// # Overview
//
// The storefront core treats this package as its only network collaborator.
// Every call returns plain Go values; caching, derived state and retry-free
// orchestration live in the dispatch and state packages.
//
// # Client Usage
//
//	client, err := mall.NewClient("https://api.it120.cc", "tz")
//	if err != nil {
//		return fmt.Errorf("init mall client: %w", err)
//	}
//
//	banners, err := client.FetchBanners(ctx, "index")
//	products, err := client.FetchProducts(ctx, mall.ProductFilter{
//		Key:             "homeRecommendProducts",
//		RecommendStatus: 1,
//	})
//
// # API Endpoints
//
//   - GET  /banner/list?type=<placement>
//   - GET  /shop/goods/category/all
//   - POST /shop/goods/list (form: categoryId, recommendStatus, page, pageSize)
//   - GET  /config/values
//   - GET  /config/vipLevel
//   - GET  /common/region/v2/province, /common/region/v2/child?pid=<id>
//   - POST /order/list (form: status, page, pageSize)
//   - GET  /shopping-cart/info
//   - POST /shopping-cart/update (JSON body: goodsId, propertyChildIds, number, active),
//     /shopping-cart/remove (form)
//
// Paths are resolved below the tenant sub-domain, so "/banner/list" becomes
// "https://api.it120.cc/<subDomain>/banner/list".
//
// # Response Envelope
//
// Every response is {"code": int, "msg": string, "data": any}. Code 0 carries
// data; code 700 means "no data" and decodes as an empty result; any other
// code becomes an *APIError.
//
// # Retries
//
// Transport failures and 5xx responses are retried with exponential backoff
// (github.com/cenkalti/backoff/v5) up to RetryPolicy.MaxTries. 4xx responses,
// envelope errors and decode failures are permanent. Callers above this
// package never retry on their own.
//
// # Amounts
//
// The API sends prices as decimal yuan. Fen decodes them into integer minor
// units so totals can be summed without float drift.
//
// # Thread Safety
//
// The Client is safe for concurrent use.
package mall
