package main

// offlineHTML is the fallback page rendered when the browser reports that
// connectivity is gone. The window reloads the compose form once the
// online-status channel flips back.
const offlineHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Offline</title>
<style>
  body {
    margin: 0;
    height: 100vh;
    display: flex;
    align-items: center;
    justify-content: center;
    font-family: -apple-system, "Segoe UI", sans-serif;
    background: #15202b;
    color: #8899a6;
    -webkit-app-region: drag;
    user-select: none;
  }
  .box { text-align: center; }
  .box h1 { font-size: 20px; font-weight: 600; color: #fff; margin: 0 0 8px; }
  .box p { font-size: 14px; margin: 0; }
</style>
</head>
<body>
  <div class="box">
    <h1>You are offline</h1>
    <p>The tweet form will reload when the network comes back.</p>
  </div>
</body>
</html>
`
