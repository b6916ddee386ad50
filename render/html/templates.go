package html

// Templates are embedded as constants so rendered pages are fully
// self-contained: Tailwind from CDN, highlighting inlined by chroma.

const pageTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<script src="https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4"></script>
</head>
<body class="bg-white dark:bg-slate-950 text-slate-900 dark:text-slate-100">
<div class="max-w-4xl mx-auto px-4 py-8">
  <header class="mb-8">
    <h1 class="text-2xl font-bold">{{ .Title }}</h1>
    <p class="text-sm text-slate-500 dark:text-slate-400 mt-1">
      <span class="font-mono">{{ .Source }}</span>
      {{ if .When }} · {{ .When }}{{ end }}
      {{ if .Model }} · {{ .Model }}{{ end }}
      {{ if .Dir }} · <span class="font-mono">{{ .Dir }}</span>{{ end }}
    </p>
    {{ if .Comment }}<p class="text-sm mt-2 text-slate-600 dark:text-slate-300">{{ .Comment }}</p>{{ end }}
    {{ if .TokenTotal }}<p class="text-xs text-slate-400 mt-2">{{ formatTokens .TokenTotal }} tokens{{ if .Duration }} · {{ .Duration }}{{ end }}</p>{{ end }}
  </header>
  <main class="space-y-4">
  {{ range .Messages }}
    <article id="{{ .ID }}" class="rounded-lg bg-slate-50 dark:bg-slate-900 p-4 {{ .BorderClass }}">
      <div class="flex items-center gap-2 mb-2">
        <span class="text-xs font-semibold px-2 py-0.5 rounded {{ .BadgeClass }}">{{ .RoleLabel }}</span>
        {{ if .Timestamp }}<time class="text-xs text-slate-400">{{ formatTime .Timestamp }}</time>{{ end }}
        {{ if .Duration }}<span class="text-xs text-emerald-600 dark:text-emerald-400">{{ .Duration }}</span>{{ end }}
      </div>
      <div class="space-y-2">
      {{ range .Blocks }}{{ . }}{{ end }}
      </div>
    </article>
  {{ end }}
  </main>
</div>
</body>
</html>`

const indexTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sessions</title>
<script src="https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4"></script>
</head>
<body class="bg-white dark:bg-slate-950 text-slate-900 dark:text-slate-100">
<div class="max-w-4xl mx-auto px-4 py-8">
  <h1 class="text-2xl font-bold mb-6">Sessions</h1>
  <ul class="divide-y divide-slate-200 dark:divide-slate-800">
  {{ range .Entries }}
    <li class="py-3">
      <a href="{{ .Href }}" class="font-medium text-blue-600 dark:text-blue-400 hover:underline">{{ .Title }}</a>
      <p class="text-xs text-slate-500 dark:text-slate-400 mt-1">
        <span class="font-mono">{{ .Source }}</span>
        {{ if .When }} · {{ .When }}{{ end }}
        · {{ .Messages }} msgs · {{ .Tools }} tools
        {{ if .Dir }} · <span class="font-mono">{{ .Dir }}</span>{{ end }}
      </p>
    </li>
  {{ end }}
  </ul>
</div>
</body>
</html>`
