// ghproxy is a reverse proxy for GitHub, GitLab and Bitbucket raw content,
// release archives and git smart HTTP.
//
// Clients put the upstream URL in the request path:
//
//	curl -O http://127.0.0.1:4000/https://github.com/owner/repo/releases/download/v1.0/app.tar.gz
//	git clone http://127.0.0.1:4000/https://github.com/owner/repo
//
// Usage:
//
//	# Start the server with config.yaml (optional) and GH_PROXY_* overrides
//	ghproxy run
//
//	# Check a configuration file
//	ghproxy validate --config /etc/ghproxy/config.yaml
//
//	# Show how a path would be handled
//	ghproxy classify https://github.com/owner/repo/blob/main/README.md --jsdelivr
package main

func main() {
	Execute()
}
