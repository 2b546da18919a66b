package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Functions called with a message element as this.
const (
	jsExists = `function(sel) { return this.querySelector(sel) !== null; }`

	jsInnerText = `function(sel) {
	const el = this.querySelector(sel);
	return el ? (el.innerText || "").trim() : "";
}`

	jsInnerHTML = `function(sel) {
	const el = this.querySelector(sel);
	return el ? el.innerHTML : "";
}`

	jsSources = `function(sel) {
	return Array.from(this.querySelectorAll(sel), img => img.getAttribute("src") || "");
}`

	jsExtraCount = `function(xpath) {
	const el = document.evaluate(xpath, this, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return 0;
	const m = (el.textContent || "").trim().match(/^\+\s*(\d+)/);
	return m ? parseInt(m[1], 10) : 0;
}`

	jsDateLabels = `function(xpath, limit) {
	const snap = document.evaluate(xpath, this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = snap.snapshotLength - 1; i >= 0 && out.length < limit; i--) {
		out.push((snap.snapshotItem(i).innerText || snap.snapshotItem(i).textContent || "").trim());
	}
	return out;
}`

	// jsShowMore finds the control by selector, if one is given, or else by
	// its label; when click is set it also clicks it.
	jsShowMore = `function(sel, texts, click) {
	let el = sel ? this.querySelector(sel) : null;
	if (!el) {
		el = Array.from(this.querySelectorAll("[role=button], button, span, div"))
			.find(e => e.children.length === 0 && (texts || []).includes((e.textContent || "").trim())) || null;
	}
	if (el && click) el.click();
	return el !== null;
}`
)

// Page level expressions.
const (
	jsAttribute = `(sel, name) => {
	const el = document.querySelector(sel);
	return el ? el.getAttribute(name) || "" : "";
}`

	jsFocus = `(sel) => {
	const el = document.querySelector(sel);
	if (el) el.focus();
	return el !== null;
}`

	jsFetchBase64 = `async (url) => {
	const r = await fetch(url);
	if (!r.ok) throw new Error("HTTP " + r.status);
	const bytes = new Uint8Array(await r.arrayBuffer());
	let bin = "";
	for (let i = 0; i < bytes.length; i += 0x8000) {
		bin += String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000));
	}
	return btoa(bin);
}`
)

// callExpr renders an immediately invoked call of fn with JSON-encoded args.
func callExpr(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument: %w", err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

// chatSelector fills the chat title pattern with a quoted-safe name.
func chatSelector(pattern, name string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
	return fmt.Sprintf(pattern, escaped)
}
