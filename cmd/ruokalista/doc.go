// Command ruokalista serves the school lunch menu as JSON and as a rendered
// daily video, and offers one-shot commands to fetch, render and inspect the
// caches without running the server.
package main
