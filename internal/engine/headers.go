package engine

// DefaultHeaders returns the browser-like header set the search API expects.
// The cookie header is only set when cookie is non-empty.
func DefaultHeaders(userAgent, cookie string) map[string]string {
	if userAgent == "" {
		userAgent = UserAgentChrome
	}
	h := map[string]string{
		"User-Agent":         userAgent,
		"Referer":            HomeURL + "/",
		"Accept":             "application/json, text/plain, */*",
		"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
		"sec-ch-ua":          `"Not A(Brand";v="99", "Google Chrome";v="121", "Chromium";v="121"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Windows"`,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-origin",
	}
	if cookie != "" {
		h["Cookie"] = cookie
	}
	return h
}
