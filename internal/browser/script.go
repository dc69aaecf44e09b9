package browser

// bindingName 是 Runtime.addBinding 注册的函数名；页面脚本通过它把事件交给 Go。
const bindingName = "__narvaro"

// ctlAttr 标记被点击的出勤按钮，后续状态更新按它定位元素。
const ctlAttr = "data-narvaro-ctl"

// listenerJS 在每个新文档创建时注入（早于页面自身脚本）。
//
// 约束：
// - 页面脚本只上报事件，不发任何请求；请求与状态判定都在 Go 侧
// - markAttendance/deleteUser/revokeTag/closeAlarm 以只读属性挂在 window 上，
//   模板里的 onclick 直接调用它们
// - 缺失的元素不绑定，也不报错；扫描框要求同一父元素下有状态区
const listenerJS = `(() => {
  const send = (ev) => {
    try { window.` + bindingName + `(JSON.stringify(ev)); } catch (e) {}
  };
  let seq = 0;
  const ctlID = (el) => {
    if (!el) return '';
    if (!el.getAttribute('` + ctlAttr + `')) el.setAttribute('` + ctlAttr + `', String(++seq));
    return el.getAttribute('` + ctlAttr + `');
  };
  const nfcStatus = (input) => {
    const p = input && input.parentNode;
    return p ? (p.querySelector('#nfc-status') || p.querySelector('.nfc-status')) : null;
  };
  window.__narvaroStatus = nfcStatus;
  const define = (name, fn) => {
    try { Object.defineProperty(window, name, { value: fn, writable: false, configurable: false }); } catch (e) {}
  };

  define('markAttendance', (alarmId, departmentId, button) => {
    if (button) button.disabled = true;
    send({ op: 'mark', alarm: String(alarmId), dept: String(departmentId), ctl: ctlID(button) });
  });
  define('deleteUser', (id) => send({ op: 'admin', fn: 'deleteUser', arg: String(id) }));
  define('revokeTag', (id) => send({ op: 'admin', fn: 'revokeTag', arg: String(id) }));
  define('closeAlarm', (id) => send({ op: 'admin', fn: 'closeAlarm', arg: String(id) }));

  document.addEventListener('DOMContentLoaded', () => {
    const nfc = document.getElementById('nfc-input');
    if (nfc && nfcStatus(nfc)) {
      nfc.focus();
      nfc.addEventListener('input', () => send({ op: 'nfc', value: nfc.value }));
    }

    const id = document.getElementById('id');
    const pw = document.getElementById('password');
    if (id && pw) {
      id.addEventListener('input', () => send({ op: 'login', field: 'id', value: id.value }));
      pw.addEventListener('input', () => send({ op: 'login', field: 'password', value: pw.value }));
    }

    const h = document.querySelector('.hamburger');
    const n = document.querySelector('.nav-links');
    if (h && n) {
      document.addEventListener('click', (e) => {
        let target = 'outside';
        if (h.contains(e.target)) {
          target = 'toggle';
        } else if (n.contains(e.target)) {
          const a = e.target.closest('a');
          target = a && n.contains(a) ? 'link' : 'panel';
        }
        send({ op: 'menu', target: target });
      });
    }

    send({ op: 'ready', path: location.pathname });
  });
})();`

// 页面侧的小函数：都以参数接收数据，不做字符串拼接。
const (
	jsShowStatus = `(html) => {
  const el = window.__narvaroStatus && window.__narvaroStatus(document.getElementById('nfc-input'));
  if (el) el.innerHTML = html;
}`
	jsClearInput = `() => {
  const el = document.getElementById('nfc-input');
  if (el) { el.value = ''; el.focus(); }
}`
	jsFocusPassword = `() => {
  const el = document.getElementById('password');
  if (el) el.focus();
}`
	jsSubmitLogin = `() => {
  const el = document.getElementById('password');
  const form = el && el.closest('form');
  if (form) form.submit();
}`
	jsApplyMenu = `(on) => {
  const h = document.querySelector('.hamburger');
  const n = document.querySelector('.nav-links');
  if (!h || !n) return;
  h.classList.toggle('active', on);
  n.classList.toggle('active', on);
}`
	jsSetControl = `(id, label, cls, disabled) => {
  const b = document.querySelector('[` + ctlAttr + `="' + id + '"]');
  if (!b) return;
  b.textContent = label;
  b.className = cls;
  b.disabled = disabled;
}`
	jsConfirm = `(prompt) => window.confirm(prompt)`
	jsSubmitForm = `(method, action, fields) => {
  const form = document.createElement('form');
  form.method = method;
  form.action = action;
  for (const [name, value] of fields) {
    const input = document.createElement('input');
    input.type = 'hidden';
    input.name = name;
    input.value = value;
    form.appendChild(input);
  }
  document.body.appendChild(form);
  form.submit();
}`
	jsFillOccurredAt = `(value) => {
  const el = document.getElementById('occurred_at');
  if (el && !el.value) el.value = value;
}`
	jsOuterHTML = `() => document.documentElement.outerHTML`
)
