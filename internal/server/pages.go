package server

import "net/http"

// Minimal built-in pages. The real frontend is served separately; these keep
// the auth flows usable from a bare browser.

const loginPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>8Berries - Log in</title></head>
<body>
<h1>8Berries</h1>
<form method="post" action="/auth/login">
  <input name="email" type="email" placeholder="Email" required>
  <input name="password" type="password" placeholder="Password" required>
  <button type="submit">Log in</button>
</form>
<p><a href="/auth/google">Log in with Google</a> · <a href="/signup">Sign up</a></p>
</body>
</html>`

const signupPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>8Berries - Sign up</title></head>
<body>
<h1>8Berries</h1>
<form method="post" action="/auth/signup">
  <input name="email" type="email" placeholder="Email" required>
  <input name="password" type="password" placeholder="Password" required>
  <input name="confirm" type="password" placeholder="Confirm password" required>
  <button type="submit">Sign up</button>
</form>
<p><a href="/login">Log in</a></p>
</body>
</html>`

const indexPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>8Berries</title></head>
<body>
<h1>8Berries</h1>
<p>You are logged in. The chat API lives under <code>/api</code>.</p>
<p><a href="/logout">Log out</a></p>
</body>
</html>`

func servePage(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Resolve(r); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	servePage(w, loginPage)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Resolve(r); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	servePage(w, signupPage)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	servePage(w, indexPage)
}
